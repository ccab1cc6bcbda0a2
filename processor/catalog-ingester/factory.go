package catalogingester

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the catalog-ingester processor component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "catalog-ingester",
		Factory:     NewComponent,
		Schema:      catalogIngesterSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "catalog",
		Description: "Catalog submission parser, store, and event publisher",
		Version:     "0.1.0",
	})
}
