package catalogapi

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the catalog-api component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "catalog-api",
		Factory:     NewComponent,
		Schema:      catalogAPISchema,
		Type:        "processor",
		Protocol:    "http",
		Domain:      "catalog",
		Description: "HTTP read API for stored catalogs and receipts",
		Version:     "0.1.0",
	})
}
