// Package handle maps opaque uintptr ids to Go values so that native code
// never holds Go pointers. Ids are never reused within a registry.
package handle

import "sync"

// Registry hands out ids for values and releases each id at most once.
type Registry[T any] struct {
	mu    sync.RWMutex
	next  uintptr
	items map[uintptr]T
	order []uintptr
}

// Register stores v and returns its id. Ids start at 1 so that 0 can be
// used as the "no handle" value across the native boundary.
func (r *Registry[T]) Register(v T) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[uintptr]T)
	}
	r.next++
	id := r.next
	r.items[id] = v
	r.order = append(r.order, id)
	return id
}

// Lookup returns the value registered under id.
func (r *Registry[T]) Lookup(id uintptr) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Release removes id and returns its value. The second result is false when
// id was never registered or has already been released, so only one caller
// ever wins ownership of the value.
func (r *Registry[T]) Release(id uintptr) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return v, false
	}
	delete(r.items, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return v, true
}

// Len returns the number of live ids.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Snapshot returns the live ids in registration order.
func (r *Registry[T]) Snapshot() []uintptr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uintptr, len(r.order))
	copy(ids, r.order)
	return ids
}
