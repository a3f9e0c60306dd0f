package dispatcher

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type decoder func([]byte) (any, error)

// Bus dispatches commands to registered handlers.
type Bus struct {
	mu sync.RWMutex

	registry *Registry
	decoders map[string]decoder
	config   Config
	metrics  *Metrics
	hooks    []Hook

	depth int
}

// New creates a bus with the given configuration.
func New(config Config) *Bus {
	b := &Bus{
		registry: NewRegistry(),
		decoders: make(map[string]decoder),
		config:   config,
	}
	if config.EnableMetrics {
		b.metrics = NewMetrics()
	}
	return b
}

// NewWithDefaults creates a bus with default configuration.
func NewWithDefaults() *Bus {
	return New(DefaultConfig())
}

// Registry returns the handler registry.
func (b *Bus) Registry() *Registry { return b.registry }

// Metrics returns the metrics collector, or nil when disabled.
func (b *Bus) Metrics() *Metrics { return b.metrics }

// Config returns the bus configuration.
func (b *Bus) Config() Config { return b.config }

// Depth returns the current dispatch nesting depth.
func (b *Bus) Depth() int { return b.depth }

// AddHook registers a dispatch hook.
func (b *Bus) AddHook(h Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
	sort.SliceStable(b.hooks, func(i, j int) bool {
		return b.hooks[i].Priority() > b.hooks[j].Priority()
	})
}

// RemoveHook removes a hook by name.
func (b *Bus) RemoveHook(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.hooks[:0:0]
	for _, h := range b.hooks {
		if h.Name() != name {
			out = append(out, h)
		}
	}
	b.hooks = out
}

func (b *Bus) hookList() []Hook {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hooks
}

func (b *Bus) setDecoder(name string, d decoder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.decoders[name]; !ok {
		b.decoders[name] = d
	}
}

// Commands returns every command name that has handlers or a recorded
// decoder, sorted.
func (b *Bus) Commands() []string {
	b.mu.RLock()
	seen := make(map[string]struct{}, len(b.decoders))
	for name := range b.decoders {
		seen[name] = struct{}{}
	}
	b.mu.RUnlock()
	for _, name := range b.registry.List() {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether any handler is registered for name.
func (b *Bus) Has(name string) bool { return b.registry.Has(name) }

// RegisterRaw adds an untyped handler and returns an idempotent unregister
// function.
func (b *Bus) RegisterRaw(name string, prio Priority, fn RawHandler) func() {
	id := b.registry.Add(name, prio, fn)
	var once sync.Once
	return func() {
		once.Do(func() { b.registry.Remove(name, id) })
	}
}

// DispatchJSON decodes data with the decoder recorded for name and
// dispatches it. Commands without a decoder receive data as a
// json.RawMessage.
func (b *Bus) DispatchJSON(name string, data []byte) (bool, error) {
	b.mu.RLock()
	dec := b.decoders[name]
	b.mu.RUnlock()

	var payload any = json.RawMessage(data)
	if dec != nil {
		p, err := dec(data)
		if err != nil {
			return false, err
		}
		payload = p
	}
	return b.DispatchAny(name, payload)
}

// DispatchAny sends payload to the handlers of name.
func (b *Bus) DispatchAny(name string, payload any) (bool, error) {
	if name == "" {
		return false, ErrInvalidCommand
	}
	if b.config.MaxDepth > 0 && b.depth >= b.config.MaxDepth {
		return false, fmt.Errorf("%w: %s at depth %d", ErrMaxDepth, name, b.depth)
	}
	b.depth++
	defer func() { b.depth-- }()

	hooks := b.hookList()
	for _, h := range hooks {
		if !h.PreDispatch(name, payload) {
			return false, fmt.Errorf("%w: %s by %s", ErrDispatchCancelled, name, h.Name())
		}
	}

	var start time.Time
	if b.metrics != nil {
		start = time.Now()
	}

	handled, err := b.run(name, payload)

	for _, h := range hooks {
		h.PostDispatch(name, payload, handled, err)
	}
	if b.metrics != nil {
		b.metrics.RecordDispatch(name, time.Since(start), handled, err)
	}
	return handled, err
}

func (b *Bus) run(name string, payload any) (bool, error) {
	for _, e := range b.registry.get(name) {
		handled, err := b.invoke(name, e, payload)
		if err != nil {
			return false, &HandlerError{Command: name, Priority: e.priority, Err: err}
		}
		if handled {
			return true, nil
		}
	}
	return false, nil
}

func (b *Bus) invoke(name string, e entry, payload any) (handled bool, err error) {
	if b.config.RecoverFromPanic {
		defer func() {
			if r := recover(); r != nil {
				if b.metrics != nil {
					b.metrics.RecordPanic(name)
				}
				handled, err = false, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
	}
	return e.fn(payload)
}
