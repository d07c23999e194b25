package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the request and response header carrying the ray id.
const Header = "X-Ray-ID"

// LocalsKey is the fiber locals key the ray id is stored under.
const LocalsKey = "ray_id"

// New returns a middleware that assigns every request a ray id. An incoming
// X-Ray-ID header is kept; otherwise a new UUID is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(LocalsKey, rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
