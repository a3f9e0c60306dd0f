package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	c := New(WithConfigFile(""), WithEnvPrefix("FOLIO_TEST_NONE_"))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := c.Settings()
	if s.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q", s.Server.Addr)
	}
	if s.Editor.MaxHistory != 100 || s.Editor.MaxDispatchDepth != 64 || !s.Editor.RecoverPanics {
		t.Errorf("Editor = %+v", s.Editor)
	}
	if s.Upload.MaxBytes != 10<<20 {
		t.Errorf("Upload.MaxBytes = %d", s.Upload.MaxBytes)
	}
	if strings.HasPrefix(s.Paths.DataDir, "~") {
		t.Errorf("DataDir not expanded: %q", s.Paths.DataDir)
	}
}

func TestConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[editor]
maxHistory = 20
metrics = true

[server]
addr = ":9000"
`)
	t.Setenv("FOLIO_EDITOR_MAX_HISTORY", "5")

	c := New(WithConfigFile(path))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := c.Settings()
	if s.Editor.MaxHistory != 5 {
		t.Errorf("MaxHistory = %d, want env override 5", s.Editor.MaxHistory)
	}
	if !s.Editor.Metrics {
		t.Error("Metrics from file not applied")
	}
	if s.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", s.Server.Addr)
	}
	if got, err := c.GetInt("editor.maxHistory"); err != nil || got != 5 {
		t.Errorf("GetInt = %d, %v", got, err)
	}
}

func TestConfig_Accessors(t *testing.T) {
	c := New(WithConfigFile(""))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetString("nope.nothing"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("missing = %v, want ErrSettingNotFound", err)
	}
	if _, err := c.GetBool("server.addr"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("wrong type = %v, want ErrTypeMismatch", err)
	}
	if b, err := c.GetBool("editor.recoverPanics"); err != nil || !b {
		t.Errorf("GetBool = %v, %v", b, err)
	}
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
	}{
		{"level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"depth", "[editor]\nmaxDispatchDepth = 0\n", "editor.maxDispatchDepth"},
		{"upload", "[upload]\nmaxBytes = -1\n", "upload.maxBytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)
			err := New(WithConfigFile(path)).Load(context.Background())
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("err = %v, want ErrValidationFailed", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Errorf("err = %v, want path %s", err, tt.path)
			}
		})
	}
}

func TestConfig_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[logging]\nlevel = \"info\"\n")

	c := New(WithConfigFile(path), WithWatcher(true))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got := make(chan Settings, 4)
	c.OnReload(func(s Settings) {
		select {
		case got <- s:
		default:
		}
	})

	writeFile(t, path, "[logging]\nlevel = \"debug\"\n")

	select {
	case s := <-got:
		if s.Logging.Level != "debug" {
			t.Errorf("reloaded level = %q", s.Logging.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
	if c.Settings().Logging.Level != "debug" {
		t.Errorf("Settings not updated")
	}
}

func TestConfig_OverrideWinsOverEnv(t *testing.T) {
	t.Setenv("FOLIO_LOGGING_LEVEL", "warn")
	c := New(WithConfigFile(""), WithOverride("logging.level", "error"))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.Settings().Logging.Level; got != "error" {
		t.Errorf("Logging.Level = %q, want error", got)
	}
}

func TestConfig_WatcherOnMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "config.toml")
	c := New(WithConfigFile(path), WithWatcher(true))
	defer c.Close()
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load = %v, want defaults without a watcher", err)
	}
}
