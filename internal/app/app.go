package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/plugin/column"
	"github.com/dshills/folio/internal/plugin/data"
	"github.com/dshills/folio/internal/plugin/image"
	"github.com/dshills/folio/internal/plugin/markdown"
	"github.com/dshills/folio/internal/plugin/richtext"
	"github.com/dshills/folio/internal/plugin/script"
	"github.com/dshills/folio/internal/schema"
	"github.com/dshills/folio/internal/store"
)

// BlobPrefix is the URL path under which uploaded blobs are served.
const BlobPrefix = "/blobs/"

// App holds the process-wide collaborators shared by sessions.
type App struct {
	Config *config.Config
	Store  *store.Store
	Logger *slog.Logger

	level   *slog.LevelVar
	scripts []script.Source
}

// New builds an App from loaded configuration. Logs go to w.
func New(cfg *config.Config, w io.Writer) (*App, error) {
	s := cfg.Settings()
	level := new(slog.LevelVar)
	level.Set(ParseLogLevel(s.Logging.Level))
	logger := NewLogger(w, s.Logging.Format, level)

	st, err := store.Open(s.Paths.DataDir)
	if err != nil {
		return nil, &OperationError{Op: "open store", Target: s.Paths.DataDir, Err: err}
	}

	scripts, err := script.LoadDir(s.Paths.ScriptDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &OperationError{Op: "load scripts", Target: s.Paths.ScriptDir, Err: err}
	}

	a := &App{
		Config:  cfg,
		Store:   st,
		Logger:  logger,
		level:   level,
		scripts: scripts,
	}
	cfg.OnReload(a.applySettings)
	logger.Debug("app ready", "data", s.Paths.DataDir, "scripts", len(scripts))
	return a, nil
}

// applySettings picks up settings that can change without a restart.
func (a *App) applySettings(s config.Settings) {
	lvl := ParseLogLevel(s.Logging.Level)
	if a.level.Level() != lvl {
		a.level.Set(lvl)
		a.Logger.Info("log level changed", "level", lvl.String())
	}
}

// Level returns the current minimum log level.
func (a *App) Level() slog.Level { return a.level.Level() }

// SessionOption configures a session created by the App.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	initial *schema.Document
	persist bool
}

// WithDocument seeds the session with doc.
func WithDocument(doc schema.Document) SessionOption {
	return func(o *sessionOptions) { o.initial = &doc }
}

// WithPersistence saves every document change to the store.
func WithPersistence() SessionOption {
	return func(o *sessionOptions) { o.persist = true }
}

// NewSession creates a session with every plugin registered. ctx bounds
// background uploads.
func (a *App) NewSession(ctx context.Context, id string, opts ...SessionOption) (*editor.Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	s := a.Config.Settings()
	busCfg := dispatcher.DefaultConfig().
		WithPanicRecovery(s.Editor.RecoverPanics).
		WithMaxDepth(s.Editor.MaxDispatchDepth)
	if s.Editor.Metrics {
		busCfg = busCfg.WithMetrics()
	}

	sess := editor.NewSession(
		editor.WithID(id),
		editor.WithLogger(a.Logger),
		editor.WithBusConfig(busCfg),
		editor.WithEngineOptions(engine.WithMaxHistory(s.Editor.MaxHistory)),
	)
	logger := sess.Logger

	dp := &data.Plugin{Initial: o.initial}
	if o.persist {
		dp.OnChange = func(doc schema.Document) {
			if err := a.Store.SaveDocument(sess.ID, doc); err != nil {
				logger.Error("save document failed", "error", err)
			}
		}
	}
	err := sess.Use(
		richtext.New(),
		column.New(),
		image.New(
			image.WithUploader(a.Upload),
			image.WithContext(ctx),
			image.WithFailureHandler(func(f *image.UploadFailure) {
				logger.Warn("image upload failed", "file", f.File, "error", f.Err)
			}),
		),
		markdown.New(),
		script.New(script.WithSources(a.scripts...)),
		dp,
	)
	if err != nil {
		sess.Close()
		return nil, &OperationError{Op: "create session", Target: id, Err: err}
	}
	return sess, nil
}

// Create stores a new document and returns its ID. A non-empty markdown
// source becomes its content.
func (a *App) Create(ctx context.Context, md string) (string, error) {
	id := store.NewID()
	sess, err := a.NewSession(ctx, id)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	if strings.TrimSpace(md) != "" {
		payload := markdown.ImportPayload{Markdown: md, Replace: true}
		if _, err := dispatcher.Dispatch(sess.Bus, markdown.ImportMarkdown, payload); err != nil {
			return "", &OperationError{Op: "create", Target: id, Err: err}
		}
	}
	doc, err := sess.Export()
	if err != nil {
		return "", &OperationError{Op: "create", Target: id, Err: err}
	}
	if err := a.Store.SaveDocument(id, doc); err != nil {
		return "", &OperationError{Op: "create", Target: id, Err: err}
	}
	a.Logger.Info("document created", "id", id)
	return id, nil
}

// Open loads a stored document into a persisting session.
func (a *App) Open(ctx context.Context, id string) (*editor.Session, error) {
	doc, err := a.Store.LoadDocument(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, &OperationError{Op: "open", Target: id, Err: err}
	}
	return a.NewSession(ctx, id, WithDocument(doc), WithPersistence())
}

// Upload stores an image file as a blob and returns its URL path.
func (a *App) Upload(_ context.Context, f editor.File) (string, error) {
	if !f.IsImage() {
		return "", &OperationError{Op: "upload", Target: f.Name, Err: ErrNotImage}
	}
	if limit := a.Config.Settings().Upload.MaxBytes; int64(len(f.Data)) > limit {
		return "", &OperationError{Op: "upload", Target: f.Name,
			Err: fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, len(f.Data), limit)}
	}
	name, err := a.Store.PutBlob(f.MIME, f.Data)
	if err != nil {
		return "", &OperationError{Op: "upload", Target: f.Name, Err: err}
	}
	a.Logger.Debug("blob stored", "name", name, "bytes", len(f.Data))
	return BlobPrefix + name, nil
}
