// Package config loads folio settings.
//
// Settings are merged from three sources, later ones winning:
//
//  1. Built-in defaults
//  2. The TOML config file (~/.folio/config.toml unless overridden)
//  3. FOLIO_ environment variables (FOLIO_EDITOR_MAX_HISTORY=50)
//
// Usage:
//
//	cfg := config.New(config.WithConfigFile(path))
//	if err := cfg.Load(ctx); err != nil {
//		return err
//	}
//	s := cfg.Settings()
//
// With WithWatcher(true) the file is watched and OnReload callbacks run
// after each successful reload.
package config
