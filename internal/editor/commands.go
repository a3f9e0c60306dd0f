package editor

import (
	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// KeyEvent carries modifier state for keyboard commands.
type KeyEvent struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// DeleteCharacterPayload selects the delete direction.
type DeleteCharacterPayload struct {
	Backward bool `json:"backward"`
}

// ClickPayload identifies the clicked node.
type ClickPayload struct {
	Key    node.Key `json:"key"`
	Offset int      `json:"offset,omitempty"`
	Shift  bool     `json:"shift,omitempty"`
}

// SelectPayload replaces the selection. Nodes wins over Anchor/Focus; an
// empty payload clears the selection.
type SelectPayload struct {
	Anchor *selection.Point `json:"anchor,omitempty"`
	Focus  *selection.Point `json:"focus,omitempty"`
	Nodes  []node.Key       `json:"nodes,omitempty"`
}

// Selection converts the payload.
func (p SelectPayload) Selection() selection.Selection {
	switch {
	case len(p.Nodes) > 0:
		return selection.NewNodeSet(p.Nodes...)
	case p.Anchor != nil && p.Focus != nil:
		return selection.NewRange(*p.Anchor, *p.Focus)
	case p.Anchor != nil:
		return selection.Caret(*p.Anchor)
	}
	return nil
}

// Core commands.
var (
	InsertText      = dispatcher.NewCommand[string]("INSERT_TEXT_COMMAND")
	InsertParagraph = dispatcher.NewCommand[struct{}]("INSERT_PARAGRAPH_COMMAND")
	DeleteCharacter = dispatcher.NewCommand[DeleteCharacterPayload]("DELETE_CHARACTER_COMMAND")
	KeyBackspace    = dispatcher.NewCommand[KeyEvent]("KEY_BACKSPACE_COMMAND")
	KeyDelete       = dispatcher.NewCommand[KeyEvent]("KEY_DELETE_COMMAND")
	MoveDown        = dispatcher.NewCommand[KeyEvent]("MOVE_DOWN_COMMAND")
	Click           = dispatcher.NewCommand[ClickPayload]("CLICK_COMMAND")
	SetSelection    = dispatcher.NewCommand[SelectPayload]("SELECTION_CHANGE_COMMAND")

	// FormatText toggles a format by name, e.g. "bold".
	FormatText = dispatcher.NewCommand[string]("FORMAT_TEXT_COMMAND")
	// FormatElement sets block alignment, e.g. "center".
	FormatElement = dispatcher.NewCommand[string]("FORMAT_ELEMENT_COMMAND")
	// SetBlockType converts blocks: "paragraph", "h1".."h6" or "quote".
	SetBlockType = dispatcher.NewCommand[string]("SET_BLOCK_TYPE_COMMAND")

	Undo    = dispatcher.NewCommand[struct{}]("UNDO_COMMAND")
	Redo    = dispatcher.NewCommand[struct{}]("REDO_COMMAND")
	CanUndo = dispatcher.NewCommand[bool]("CAN_UNDO_COMMAND")
	CanRedo = dispatcher.NewCommand[bool]("CAN_REDO_COMMAND")

	DragStart = dispatcher.NewCommand[*DataTransfer]("DRAG_START_COMMAND")
	Drop      = dispatcher.NewCommand[*DataTransfer]("DROP_COMMAND")
)

// declareCore records JSON decoders for the core commands.
func declareCore(b *dispatcher.Bus) {
	dispatcher.Declare(b, InsertText)
	dispatcher.Declare(b, InsertParagraph)
	dispatcher.Declare(b, DeleteCharacter)
	dispatcher.Declare(b, KeyBackspace)
	dispatcher.Declare(b, KeyDelete)
	dispatcher.Declare(b, MoveDown)
	dispatcher.Declare(b, Click)
	dispatcher.Declare(b, SetSelection)
	dispatcher.Declare(b, FormatText)
	dispatcher.Declare(b, FormatElement)
	dispatcher.Declare(b, SetBlockType)
	dispatcher.Declare(b, Undo)
	dispatcher.Declare(b, Redo)
	dispatcher.Declare(b, CanUndo)
	dispatcher.Declare(b, CanRedo)
	dispatcher.Declare(b, DragStart)
	dispatcher.Declare(b, Drop)
}
