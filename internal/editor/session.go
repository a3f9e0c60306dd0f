package editor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
	"github.com/dshills/folio/internal/selection"
	"github.com/dshills/folio/internal/task"
)

// Plugin extends a session with node types, invariants and handlers.
type Plugin interface {
	// Name identifies the plugin.
	Name() string

	// Register wires the plugin into s. The returned function, if any, is
	// called by Session.Close.
	Register(s *Session) (func(), error)
}

// Session is one open document.
type Session struct {
	ID       string
	Registry *schema.Registry
	Engine   *engine.Engine
	Bus      *dispatcher.Bus
	Queue    *task.Queue
	Logger   *slog.Logger

	plugins  []string
	cleanups []func()
}

type sessionConfig struct {
	id         string
	registry   *schema.Registry
	logger     *slog.Logger
	busConfig  dispatcher.Config
	engineOpts []engine.Option
	queue      *task.Queue
}

// Option configures a Session.
type Option func(*sessionConfig)

// WithID sets the session ID. The default is a random UUID.
func WithID(id string) Option {
	return func(c *sessionConfig) { c.id = id }
}

// WithRegistry sets the node type registry. Plugins register their types
// into it, so it must not be shared between sessions using the same
// plugins.
func WithRegistry(r *schema.Registry) Option {
	return func(c *sessionConfig) { c.registry = r }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) { c.logger = l }
}

// WithBusConfig sets the command bus configuration.
func WithBusConfig(cfg dispatcher.Config) Option {
	return func(c *sessionConfig) { c.busConfig = cfg }
}

// WithEngineOptions passes options to the engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *sessionConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithQueue sets the task queue.
func WithQueue(q *task.Queue) Option {
	return func(c *sessionConfig) { c.queue = q }
}

// NewSession creates a session holding an empty document with the caret in
// its first paragraph.
func NewSession(opts ...Option) *Session {
	cfg := sessionConfig{busConfig: dispatcher.DefaultConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	if cfg.registry == nil {
		cfg.registry = schema.DefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.queue == nil {
		cfg.queue = task.New()
	}
	logger := cfg.logger.With("session", cfg.id)

	engineOpts := append([]engine.Option{engine.WithLogger(logger)}, cfg.engineOpts...)
	s := &Session{
		ID:       cfg.id,
		Registry: cfg.registry,
		Engine:   engine.New(cfg.registry, engineOpts...),
		Bus:      dispatcher.New(cfg.busConfig),
		Queue:    cfg.queue,
		Logger:   logger,
	}
	declareCore(s.Bus)
	s.Bus.AddHook(dispatcher.LoggingHook{Logger: logger})

	if s.Engine.Selection() == nil {
		snap := s.Engine.Snapshot()
		if first := snap.FirstChild(snap.RootKey()); first != nil {
			err := s.Engine.Update(func(tx *engine.Tx) error {
				tx.SetSelection(selection.Caret(StartPoint(tx, first.Key())))
				return nil
			})
			if err != nil {
				s.Logger.Warn("initial caret not set", "error", err)
			}
		}
	}

	s.cleanups = append(s.cleanups, s.Engine.Subscribe(s.publishHistoryState))
	return s
}

// publishHistoryState tells toolbar listeners whether undo and redo are
// available.
func (s *Session) publishHistoryState(engine.Change) {
	if _, err := dispatcher.Dispatch(s.Bus, CanUndo, s.Engine.CanUndo()); err != nil {
		s.Logger.Warn("can-undo listener failed", "error", err)
	}
	if _, err := dispatcher.Dispatch(s.Bus, CanRedo, s.Engine.CanRedo()); err != nil {
		s.Logger.Warn("can-redo listener failed", "error", err)
	}
}

// Use registers plugins in order.
func (s *Session) Use(plugins ...Plugin) error {
	for _, p := range plugins {
		if slices.Contains(s.plugins, p.Name()) {
			return fmt.Errorf("%w: %s", ErrPluginRegistered, p.Name())
		}
		cleanup, err := p.Register(s)
		if err != nil {
			return fmt.Errorf("register plugin %s: %w", p.Name(), err)
		}
		s.plugins = append(s.plugins, p.Name())
		if cleanup != nil {
			s.cleanups = append(s.cleanups, cleanup)
		}
		s.Logger.Debug("plugin registered", "plugin", p.Name())
	}
	return nil
}

// Plugins returns the names of the registered plugins.
func (s *Session) Plugins() []string { return slices.Clone(s.plugins) }

// Close runs plugin cleanups in reverse order and closes the queue.
func (s *Session) Close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
	s.Queue.Close()
}

// Update runs fn in an engine transaction.
func (s *Session) Update(fn func(tx *engine.Tx) error) error {
	return s.Engine.Update(fn)
}

// Snapshot returns the current document.
func (s *Session) Snapshot() *node.Snapshot { return s.Engine.Snapshot() }

// Selection returns the current selection.
func (s *Session) Selection() selection.Selection { return s.Engine.Selection() }

// DispatchJSON dispatches a command by name with a JSON payload.
func (s *Session) DispatchJSON(name string, payload []byte) (bool, error) {
	return s.Bus.DispatchJSON(name, payload)
}

// Export serializes the current document.
func (s *Session) Export() (schema.Document, error) {
	return s.Registry.ExportDocument(s.Snapshot())
}

// MarshalDocument returns the indented JSON form of the current document.
func (s *Session) MarshalDocument() ([]byte, error) {
	doc, err := s.Export()
	if err != nil {
		return nil, err
	}
	return schema.Encode(doc)
}

// Load replaces the document with doc, clears history and puts the caret
// at the start of the first block.
func (s *Session) Load(doc schema.Document) error {
	snap, err := s.Registry.ImportDocument(doc)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	var sel selection.Selection
	if first := snap.FirstChild(snap.RootKey()); first != nil {
		sel = selection.Caret(StartPoint(snap, first.Key()))
	}
	return s.Engine.SetSnapshot(snap, sel)
}

// Settle runs queued continuations until background work finishes.
func (s *Session) Settle(ctx context.Context) error {
	return s.Queue.Settle(ctx)
}
