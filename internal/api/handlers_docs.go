package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dshills/folio/internal/app"
	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/export/htmlexport"
	"github.com/dshills/folio/internal/plugin/markdown"
	"github.com/dshills/folio/internal/store"
)

// settleTimeout bounds how long a command waits for its uploads.
const settleTimeout = 30 * time.Second

// topCommands is how many commands the metrics endpoint lists.
const topCommands = 20

// handleListDocuments lists stored document IDs.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := s.app.Store.Documents(r.Context())
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": ids})
}

// handleCreateDocument stores a new document, seeded from a markdown body.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.bodyLimit()))
	if err != nil {
		jsonError(w, "reading body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	id, err := s.app.Create(r.Context(), string(body))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	var doc []byte
	err := s.sessions.with(chi.URLParam(r, "id"), func(sess *editor.Session) error {
		var err error
		doc, err = sess.MarshalDocument()
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.sessions.drop(id)
	if err := s.app.Store.DeleteDocument(id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	var out string
	err := s.sessions.with(chi.URLParam(r, "id"), func(sess *editor.Session) error {
		var err error
		out, err = htmlexport.RenderString(sess.Snapshot())
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	var out string
	err := s.sessions.with(chi.URLParam(r, "id"), func(sess *editor.Session) error {
		out = markdown.Export(sess.Snapshot())
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, out)
}

// handleMetrics reports the document's command bus counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	err := s.sessions.with(chi.URLParam(r, "id"), func(sess *editor.Session) error {
		if m := sess.Bus.Metrics(); m != nil {
			resp = map[string]any{"totals": m.Totals(), "commands": m.TopCommands(topCommands)}
		}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if resp == nil {
		jsonError(w, "metrics disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type commandResponse struct {
	Handled  bool            `json:"handled"`
	Document json.RawMessage `json:"document"`
}

// handleCommand dispatches a command with the request body as its JSON
// payload, waits for background work it started and returns the result.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.bodyLimit()))
	if err != nil {
		jsonError(w, "reading body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	s.dispatch(w, r, func(sess *editor.Session) (bool, error) {
		if !sess.Bus.Has(command) {
			return false, errUnknownCommand{command}
		}
		return sess.DispatchJSON(command, payload)
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, func(sess *editor.Session) (bool, error) {
		return dispatcher.Dispatch(sess.Bus, editor.Undo, struct{}{})
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, func(sess *editor.Session) (bool, error) {
		return dispatcher.Dispatch(sess.Bus, editor.Redo, struct{}{})
	})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, fn func(*editor.Session) (bool, error)) {
	var resp commandResponse
	err := s.sessions.with(chi.URLParam(r, "id"), func(sess *editor.Session) error {
		handled, err := fn(sess)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
		defer cancel()
		if err := sess.Settle(ctx); err != nil {
			s.log.Warn("background work still running", "session", sess.ID, "error", err)
		}
		doc, err := sess.MarshalDocument()
		if err != nil {
			return err
		}
		resp = commandResponse{Handled: handled, Document: doc}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	data, typ, err := s.app.Store.Blob(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", typ)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}

// bodyLimit allows an upload of upload.maxBytes encoded as base64 inside a
// JSON payload.
func (s *Server) bodyLimit() int64 {
	return s.app.Config.Settings().Upload.MaxBytes*4/3 + 64<<10
}

type errUnknownCommand struct{ name string }

func (e errUnknownCommand) Error() string { return "unknown command " + e.name }

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var unknown errUnknownCommand
	var herr *dispatcher.HandlerError
	switch {
	case errors.Is(err, app.ErrDocumentNotFound), errors.Is(err, store.ErrNotFound), errors.As(err, &unknown):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidID), errors.Is(err, dispatcher.ErrInvalidPayload):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &herr):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("request failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
