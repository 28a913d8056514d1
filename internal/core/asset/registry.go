package asset

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds an empty object shell; fields are filled by LoadFrom.
type Factory func(file *Cabinet, pathID PathID, classID1, classID2 ClassID) Object

// UnknownClassPolicy decides what Load does with a class no factory handles.
type UnknownClassPolicy uint8

const (
	// RejectUnknown fails the load with ErrMalformedCabinet.
	RejectUnknown UnknownClassPolicy = iota
	// PreserveUnknown keeps the payload as an opaque RawObject.
	PreserveUnknown
)

// Registry maps a concrete class id to its factory. Dispatch happens once,
// when the shell is built.
type Registry struct {
	mu        sync.RWMutex
	factories map[ClassID]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[ClassID]Factory)}
}

// DefaultRegistry returns a fresh registry with the built-in classes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ClassGameObject, func(file *Cabinet, pathID PathID, c1, c2 ClassID) Object {
		return newGameObject(file, pathID, c1, c2)
	})
	r.Register(ClassTransform, func(file *Cabinet, pathID PathID, c1, c2 ClassID) Object {
		return newTransform(file, pathID, c1, c2)
	})
	r.Register(ClassRectTransform, func(file *Cabinet, pathID PathID, c1, c2 ClassID) Object {
		return newRectTransform(file, pathID, c1, c2)
	})
	r.Register(ClassMeshFilter, func(file *Cabinet, pathID PathID, c1, c2 ClassID) Object {
		return newMeshFilter(file, pathID, c1, c2)
	})
	return r
}

func (r *Registry) Register(id ClassID, f Factory) {
	r.mu.Lock()
	r.factories[id] = f
	r.mu.Unlock()
}

func (r *Registry) Lookup(id ClassID) (Factory, bool) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	return f, ok
}

// Classes lists registered class ids in ascending order.
func (r *Registry) Classes() []ClassID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ClassID, 0, len(r.factories))
	for id := range r.factories {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) build(file *Cabinet, policy UnknownClassPolicy, pathID PathID, c1, c2 ClassID) (Object, error) {
	if f, ok := r.Lookup(c2); ok {
		return f(file, pathID, c1, c2), nil
	}
	if policy == PreserveUnknown {
		return newRawObject(file, pathID, c1, c2), nil
	}
	return nil, fmt.Errorf("class %d/%d of object %d: %w", c1, c2, pathID, ErrUnknownClass)
}
