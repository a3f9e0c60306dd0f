package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Settings is the typed view of the merged configuration.
type Settings struct {
	Logging Logging `toml:"logging"`
	Server  Server  `toml:"server"`
	Paths   Paths   `toml:"paths"`
	Editor  Editor  `toml:"editor"`
	Upload  Upload  `toml:"upload"`
}

// Logging controls the slog handler.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// Server controls the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Paths locates on-disk state. A leading ~ is expanded.
type Paths struct {
	DataDir   string `toml:"dataDir"`
	ScriptDir string `toml:"scriptDir"`
}

// Editor tunes each editing session.
type Editor struct {
	MaxHistory       int  `toml:"maxHistory"`
	MaxDispatchDepth int  `toml:"maxDispatchDepth"`
	RecoverPanics    bool `toml:"recoverPanics"`
	Metrics          bool `toml:"metrics"`
}

// Upload limits image uploads.
type Upload struct {
	MaxBytes int64 `toml:"maxBytes"`
}

// Defaults returns the built-in configuration as a nested map.
func Defaults() map[string]any {
	return map[string]any{
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"server": map[string]any{
			"addr": "127.0.0.1:8080",
		},
		"paths": map[string]any{
			"dataDir":   "~/.folio/data",
			"scriptDir": "~/.folio/scripts",
		},
		"editor": map[string]any{
			"maxHistory":       int64(100),
			"maxDispatchDepth": int64(64),
			"recoverPanics":    true,
			"metrics":          false,
		},
		"upload": map[string]any{
			"maxBytes": int64(10 << 20),
		},
	}
}

// DefaultConfigFile returns ~/.folio/config.toml.
func DefaultConfigFile() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".folio", "config.toml")
	}
	return filepath.Join(home, ".folio", "config.toml")
}

// LogLevel parses Logging.Level.
func (s Settings) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.Logging.Level)); err != nil {
		return slog.LevelInfo, &ValidationError{Path: "logging.level", Reason: err.Error()}
	}
	return l, nil
}

// Validate checks value ranges and expands home-relative paths.
func (s *Settings) Validate() error {
	var errs []error
	if _, err := s.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(s.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, &ValidationError{Path: "logging.format", Reason: fmt.Sprintf("unknown format %q", s.Logging.Format)})
	}
	if s.Editor.MaxHistory < 0 {
		errs = append(errs, &ValidationError{Path: "editor.maxHistory", Reason: "must not be negative"})
	}
	if s.Editor.MaxDispatchDepth <= 0 {
		errs = append(errs, &ValidationError{Path: "editor.maxDispatchDepth", Reason: "must be positive"})
	}
	if s.Upload.MaxBytes <= 0 {
		errs = append(errs, &ValidationError{Path: "upload.maxBytes", Reason: "must be positive"})
	}
	for _, p := range []*string{&s.Paths.DataDir, &s.Paths.ScriptDir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			errs = append(errs, &ValidationError{Path: "paths", Reason: err.Error()})
			continue
		}
		*p = expanded
	}
	return errors.Join(errs...)
}
