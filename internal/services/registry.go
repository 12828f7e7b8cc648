// Package services provides the service layer of luabreak: the scoped
// invoker, the proxy breakpoint manager, the debug-mode toggler backend, and
// configuration access, all behind a global service registry.
package services

import (
	"fmt"
	"sync"

	"luabreak/pkg/breaktypes"
)

// Registry manages service registration and lifecycle for luabreak services.
type Registry struct {
	mu       sync.RWMutex
	services map[string]breaktypes.Service
}

// NewRegistry creates a new service registry with an empty service map.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]breaktypes.Service),
	}
}

// RegisterService adds a service to the registry, returning an error if
// already registered.
func (r *Registry) RegisterService(service breaktypes.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	return nil
}

// GetService retrieves a service by name, returning an error if not found.
func (r *Registry) GetService(name string) (breaktypes.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// InitializeAll initializes all registered services.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, service := range r.services {
		if err := service.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", name, err)
		}
	}

	return nil
}

// GlobalRegistry is the global service registry instance.
var GlobalRegistry = NewRegistry()

// globalRegistryMu protects access to the GlobalRegistry variable itself.
var globalRegistryMu sync.RWMutex

// GetGlobalRegistry returns the global service registry instance in a
// thread-safe manner.
func GetGlobalRegistry() *Registry {
	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return GlobalRegistry
}

// SetGlobalRegistry sets the global service registry instance in a
// thread-safe manner. Tests use this to install a fresh registry.
func SetGlobalRegistry(registry *Registry) {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	GlobalRegistry = registry
}
