package data

import (
	"fmt"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/schema"
)

// Plugin seeds a session and forwards its changes.
type Plugin struct {
	// Initial replaces the session's document on registration. History is
	// cleared so the seed cannot be undone.
	Initial *schema.Document

	// OnChange receives the exported document after every commit, undo
	// and redo that replaces the document. Selection-only updates are not
	// reported.
	OnChange func(schema.Document)
}

// Name implements editor.Plugin.
func (*Plugin) Name() string { return "data" }

// Register implements editor.Plugin.
func (p *Plugin) Register(s *editor.Session) (func(), error) {
	if p.Initial != nil {
		if err := s.Load(*p.Initial); err != nil {
			return nil, fmt.Errorf("seed document: %w", err)
		}
	}
	if p.OnChange == nil {
		return nil, nil
	}
	return s.Engine.Subscribe(func(c engine.Change) {
		if !c.DocumentChanged() || c.HasTag(engine.TagLoad) {
			return
		}
		doc, err := s.Registry.ExportDocument(c.Snapshot)
		if err != nil {
			s.Logger.Error("export for on-change failed", "error", err)
			return
		}
		p.OnChange(doc)
	}), nil
}
