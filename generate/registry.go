package generate

import (
	"slices"

	"github.com/kbukum/coursegen/errors"
	"github.com/kbukum/coursegen/provider"
)

// Registry holds the configured model backends keyed by provider name.
type Registry = provider.Registry[Backend]

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return provider.NewRegistry[Backend]()
}

// Resolve returns the backend for the named provider, preferring a
// cached instance and falling back to the registered factory. Unknown
// names yield a not-found error suitable for API responses; a registered
// factory that fails to construct reports its own error.
func Resolve(r *Registry, name string) (Backend, error) {
	if b, ok := r.Get(name); ok {
		return b, nil
	}
	if !slices.Contains(r.List(), name) {
		return nil, errors.ProviderNotFound(name)
	}
	b, err := r.Create(name, nil)
	if err != nil {
		return nil, err
	}
	r.Set(name, b)
	return b, nil
}
