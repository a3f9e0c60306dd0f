package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/folio/internal/config/loader"
	"github.com/dshills/folio/internal/config/watcher"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "FOLIO_"

// Config holds the merged configuration and reloads it when the file
// changes.
type Config struct {
	mu sync.RWMutex

	merged   map[string]any
	settings Settings
	loaded   bool

	file          string
	envPrefix     string
	enableWatcher bool
	fsys          loader.FileSystem
	overrides     map[string]any
	logger        *slog.Logger

	watcher  *watcher.Watcher
	onReload []func(Settings)
}

// Option configures a Config instance.
type Option func(*Config)

// WithConfigFile sets the TOML file. An empty path disables file loading.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.file = path
	}
}

// WithWatcher enables reloading when the config file changes.
func WithWatcher(enable bool) Option {
	return func(c *Config) {
		c.enableWatcher = enable
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithOverride sets a value that wins over every source, such as a
// command-line flag.
func WithOverride(path string, value any) Option {
	return func(c *Config) {
		if c.overrides == nil {
			c.overrides = make(map[string]any)
		}
		loader.SetByPath(c.overrides, path, value)
	}
}

// WithFileSystem sets the file system the TOML file is read from.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fsys = fsys
	}
}

// WithLogger sets the logger used for reload failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

// New creates a Config. Call Load before reading settings.
func New(opts ...Option) *Config {
	c := &Config{
		file:      DefaultConfigFile(),
		envPrefix: DefaultEnvPrefix,
		fsys:      loader.OSFS{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads every source and, if enabled, starts the file watcher.
func (c *Config) Load(_ context.Context) error {
	merged, settings, err := c.read()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.merged, c.settings, c.loaded = merged, settings, true
	start := c.enableWatcher && c.file != "" && c.watcher == nil
	if start {
		c.watcher = watcher.New()
		c.watcher.OnChange(c.handleFileChange)
	}
	w := c.watcher
	c.mu.Unlock()

	if start {
		err := w.Watch(c.file)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			c.logger.Warn("config watcher disabled", "path", c.file, "error", err)
			c.mu.Lock()
			c.watcher = nil
			c.mu.Unlock()
		}
	}
	return nil
}

func (c *Config) read() (map[string]any, Settings, error) {
	merged := Defaults()
	if c.file != "" {
		data, err := loader.NewTOMLLoaderWithFS(c.fsys, c.file).Load()
		if err != nil {
			return nil, Settings{}, err
		}
		merged = loader.DeepMerge(merged, data)
	}
	env, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return nil, Settings{}, err
	}
	merged = loader.DeepMerge(merged, env)
	merged = loader.DeepMerge(merged, c.overrides)

	s, err := decode(merged)
	if err != nil {
		return nil, Settings{}, err
	}
	return merged, s, nil
}

// decode converts the merged map to Settings by round-tripping TOML, which
// applies the same coercions as reading the file directly.
func decode(merged map[string]any) (Settings, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(merged); err != nil {
		return Settings{}, fmt.Errorf("encoding settings: %w", err)
	}
	var s Settings
	if err := toml.Unmarshal(buf.Bytes(), &s); err != nil {
		return Settings{}, &TypeError{Path: "settings", Expected: "valid settings", Actual: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Close stops the file watcher.
func (c *Config) Close() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// File returns the config file path.
func (c *Config) File() string { return c.file }

// Settings returns the typed settings. Before Load it returns the defaults.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		s, _ := decode(Defaults())
		return s
	}
	return c.settings
}

// OnReload registers fn to run after the file is reloaded.
func (c *Config) OnReload(fn func(Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

// Get returns the value at a dot-separated path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.GetByPath(c.merged, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: fmt.Sprintf("%T", v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: fmt.Sprintf("%T", v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: fmt.Sprintf("%T", v)}
	}
	return b, nil
}

// Merged returns a copy of the merged configuration map.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.DeepMerge(nil, c.merged)
}

// handleFileChange reloads every source. A file that fails to parse keeps
// the previous settings.
func (c *Config) handleFileChange(ev watcher.Event) {
	merged, settings, err := c.read()
	if err != nil {
		c.logger.Warn("config reload failed; keeping previous settings", "path", ev.Path, "op", ev.Op.String(), "error", err)
		return
	}
	c.mu.Lock()
	c.merged, c.settings = merged, settings
	callbacks := append([]func(Settings){}, c.onReload...)
	c.mu.Unlock()

	c.logger.Info("config reloaded", "path", ev.Path)
	for _, fn := range callbacks {
		fn(settings)
	}
}
