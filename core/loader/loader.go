package loader

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
)

// Feature is a self-contained module that registers its own routes.
type Feature interface {
	Name() string
	IsEnabled() bool
	Load(app fiber.Router) error
}

// Manager holds the registered features in registration order.
type Manager struct {
	features []Feature
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds f to the manager.
func (m *Manager) Register(f Feature) {
	m.features = append(m.features, f)
}

// Features returns the registered features.
func (m *Manager) Features() []Feature {
	return m.features
}

// LoadAll loads every enabled feature, stopping at the first failure.
func (m *Manager) LoadAll(app fiber.Router) error {
	for _, f := range m.features {
		if !f.IsEnabled() {
			continue
		}
		if err := f.Load(app); err != nil {
			return eris.Wrapf(err, "loader: feature %s", f.Name())
		}
	}
	return nil
}
