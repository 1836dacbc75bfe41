package tyck

import (
	"reflect"
	"sync"
)

// TypeInfo describes a registered identity.
type TypeInfo struct {
	ID   uint16
	Type reflect.Type
	Name string
}

// Registry maps identities to small stable IDs and back.
// Thread-safe for concurrent registration and lookup.
type Registry struct {
	mu     sync.RWMutex
	types  map[uint16]*TypeInfo
	byType map[reflect.Type]uint16
	nextID uint16
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[uint16]*TypeInfo),
		byType: make(map[reflect.Type]uint16),
		nextID: 1, // 0 means unregistered
	}
}

// Register adds t and returns its ID. If t is already registered, returns
// the existing ID.
func (r *Registry) Register(t reflect.Type) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byType[t]; ok {
		return id
	}

	id := r.nextID
	r.nextID++

	name := t.String()
	if t == anyType {
		name = "any"
	}
	r.types[id] = &TypeInfo{ID: id, Type: t, Name: name}
	r.byType[t] = id
	return id
}

// Lookup returns the info for id, or nil.
func (r *Registry) Lookup(id uint16) *TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[id]
}

// LookupByType returns the info for t, or nil.
func (r *Registry) LookupByType(t reflect.Type) *TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byType[t]
	if !ok {
		return nil
	}
	return r.types[id]
}

// Count returns the number of registered identities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
