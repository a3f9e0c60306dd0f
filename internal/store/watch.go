package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports a changed document or blob.
type Event struct {
	Kind Kind
	ID   string

	// Removed is set when the file no longer exists.
	Removed bool
}

// WatchDelay coalesces bursts of writes to the same file.
const WatchDelay = 100 * time.Millisecond

// Watch streams change events until ctx is cancelled. Events are dropped
// when the consumer falls behind. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	for _, kind := range []Kind{KindDocument, KindBlob} {
		dir := filepath.Join(s.basePath, string(kind))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("store: ensure %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)
	send := func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	}
	throttle := newThrottle(WatchDelay, send)

	go func() {
		defer close(events)
		defer watcher.Close()
		defer throttle.stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev, ok := s.eventFor(evt); ok {
					throttle.enqueue(ev)
				}
			}
		}
	}()
	return events, nil
}

func (s *Store) eventFor(evt fsnotify.Event) (Event, bool) {
	rel, err := filepath.Rel(s.basePath, evt.Name)
	if err != nil {
		return Event{}, false
	}
	kind, id, ok := strings.Cut(filepath.ToSlash(rel), "/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return Event{}, false
	}
	switch Kind(kind) {
	case KindDocument, KindBlob:
	default:
		return Event{}, false
	}
	_, statErr := os.Stat(evt.Name)
	return Event{Kind: Kind(kind), ID: id, Removed: os.IsNotExist(statErr)}, true
}

// throttle delivers the latest event per file once writes settle.
type throttle struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending map[string]Event
	order   []string
	send    func(Event)
	stopped bool
}

func newThrottle(delay time.Duration, send func(Event)) *throttle {
	return &throttle{delay: delay, send: send, pending: make(map[string]Event)}
}

func (t *throttle) enqueue(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := string(ev.Kind) + "/" + ev.ID
	if _, ok := t.pending[k]; !ok {
		t.order = append(t.order, k)
	}
	t.pending[k] = ev
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, t.flush)
	}
}

// flush sends under the lock so that nothing is sent after stop returns.
func (t *throttle) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	for _, k := range t.order {
		t.send(t.pending[k])
	}
	t.pending, t.order, t.timer = make(map[string]Event), nil, nil
}

func (t *throttle) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
