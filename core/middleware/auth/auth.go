package auth

import (
	"crypto/subtle"

	"profile-ingest/core/reconcile"

	"github.com/gofiber/fiber/v2"
)

// Header is the request header carrying the API key.
const Header = "X-API-Key"

// Config configures the auth middleware.
type Config struct {
	// Principals maps each accepted API key to the principal it acts as.
	Principals map[string]string
}

// New returns a middleware that resolves the request's API key to a principal
// and stores it in the user context for reconcile.ContextPrincipal. Unknown or
// missing keys are rejected with 401. With an empty table every request is rejected.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(Header)
		principal, ok := lookup(cfg.Principals, key)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		c.SetUserContext(reconcile.WithPrincipal(c.UserContext(), principal))
		return c.Next()
	}
}

func lookup(table map[string]string, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for candidate, principal := range table {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return principal, true
		}
	}
	return "", false
}
