package dispatcher

import (
	"slices"
	"sort"
	"sync"
)

// RawHandler receives an untyped payload.
type RawHandler func(payload any) (bool, error)

type entry struct {
	id       uint64
	priority Priority
	fn       RawHandler
}

// Registry manages handler registration by command name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]entry // command name -> handlers (sorted by priority)
	nextID   uint64
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string][]entry),
	}
}

// Add registers fn and returns its id.
func (r *Registry) Add(name string, prio Priority, fn RawHandler) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	handlers := append(slices.Clip(r.handlers[name]), entry{id: r.nextID, priority: prio, fn: fn})

	// Sort by priority (descending); stable keeps registration order in a tier.
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].priority > handlers[j].priority
	})

	r.handlers[name] = handlers
	return r.nextID
}

// Remove unregisters the handler with id. Unknown ids are ignored.
func (r *Registry) Remove(name string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers := r.handlers[name]
	i := slices.IndexFunc(handlers, func(e entry) bool { return e.id == id })
	if i < 0 {
		return
	}
	handlers = slices.Delete(slices.Clone(handlers), i, i+1)
	if len(handlers) == 0 {
		delete(r.handlers, name)
		return
	}
	r.handlers[name] = handlers
}

// get returns the handlers for name. The slice must not be modified.
func (r *Registry) get(name string) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}

// Has returns true if a handler is registered for the command.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[name]) > 0
}

// Count returns the number of handlers for the command.
func (r *Registry) Count(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[name])
}

// List returns all command names with handlers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registered handlers.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string][]entry)
}
