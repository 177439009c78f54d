package registry

import (
	"fmt"
	"sync"
)

// Key names a shared service and fixes its type.
// Use "module.service" strings, e.g. "battle.sessions".
type Key[T any] string

// Registry lets modules publish services for other modules at runtime.
type Registry struct {
	services sync.Map
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Set stores value under key, replacing any previous value.
func Set[T any](r *Registry, key Key[T], value T) {
	r.services.Store(string(key), value)
}

// Get returns the service stored under key.
func Get[T any](r *Registry, key Key[T]) (T, bool) {
	var zero T
	val, ok := r.services.Load(string(key))
	if !ok {
		return zero, false
	}
	result, ok := val.(T)
	if !ok {
		return zero, false
	}
	return result, true
}

// MustGet returns the service stored under key or panics. Use it while booting.
func MustGet[T any](r *Registry, key Key[T]) T {
	val, ok := Get(r, key)
	if !ok {
		panic(fmt.Sprintf("service not found for key: %v", key))
	}
	return val
}
