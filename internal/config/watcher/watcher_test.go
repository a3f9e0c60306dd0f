package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	w := New()
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch twice: %v", err)
	}
	if got := w.Watched(); len(got) != 1 || got[0] != path {
		t.Errorf("Watched = %v", got)
	}
	w.Unwatch(path)
	if got := w.Watched(); len(got) != 0 {
		t.Errorf("Watched after Unwatch = %v", got)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := New()
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.IsRunning() {
		t.Error("not running after Start")
	}
	if err := w.Start(); err != ErrRunning {
		t.Errorf("second Start = %v, want ErrRunning", err)
	}
	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Error("running after Stop")
	}
}

func TestWatcher_DetectsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	other := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(WithDebounce(20 * time.Millisecond))
	var mu sync.Mutex
	var events []Event
	w.OnChange(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := range 3 {
		if err := os.WriteFile(path, []byte{'a', byte('0' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 debounced event: %v", len(events), events)
	}
	if events[0].Path != path {
		t.Errorf("Path = %q, want %q", events[0].Path, path)
	}
}
