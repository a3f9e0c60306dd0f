package api

import (
	"context"
	"sync"

	"github.com/dshills/folio/internal/app"
	"github.com/dshills/folio/internal/editor"
)

// openSession is a loaded document. mu guards every use of sess.
type openSession struct {
	mu   sync.Mutex
	sess *editor.Session
}

// sessions caches open documents by ID.
type sessions struct {
	app *app.App
	ctx context.Context

	mu   sync.Mutex
	open map[string]*openSession
}

func newSessions(ctx context.Context, a *app.App) *sessions {
	return &sessions{app: a, ctx: ctx, open: make(map[string]*openSession)}
}

// with runs fn holding the document's lock, opening it first if needed.
func (s *sessions) with(id string, fn func(*editor.Session) error) error {
	entry, err := s.get(id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.sess == nil {
		// closed by drop while waiting
		return s.with(id, fn)
	}
	return fn(entry.sess)
}

func (s *sessions) get(id string) (*openSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.open[id]; ok {
		return entry, nil
	}
	sess, err := s.app.Open(s.ctx, id)
	if err != nil {
		return nil, err
	}
	entry := &openSession{sess: sess}
	s.open[id] = entry
	return entry, nil
}

// drop closes and forgets a document.
func (s *sessions) drop(id string) {
	s.mu.Lock()
	entry, ok := s.open[id]
	delete(s.open, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.sess != nil {
		entry.sess.Close()
		entry.sess = nil
	}
}

func (s *sessions) closeAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.drop(id)
	}
}
