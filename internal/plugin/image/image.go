package image

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/selection"
)

// InsertPayload describes an image to insert. With File set, a placeholder
// showing Src (or a preview of the file when Src is empty) is inserted and
// the file is uploaded.
type InsertPayload struct {
	Src     string       `json:"src,omitempty"`
	Caption string       `json:"caption,omitempty"`
	File    *editor.File `json:"file,omitempty"`
}

// Image commands.
var (
	InsertImage = dispatcher.NewCommand[InsertPayload]("INSERT_IMAGE_COMMAND")
	PickImage   = dispatcher.NewCommand[struct{}]("PICK_IMAGE_COMMAND")
	// SelectImage announces the node-selected image, or "" when none is.
	SelectImage = dispatcher.NewCommand[node.Key]("SELECT_IMAGE_COMMAND")
)

// Uploader stores f and returns its address.
type Uploader func(ctx context.Context, f editor.File) (string, error)

// Picker asks the user for a file. A nil file means the pick was cancelled.
type Picker func(ctx context.Context) (*editor.File, error)

// Option configures the plugin.
type Option func(*Plugin)

// WithUploader sets the upload function.
func WithUploader(u Uploader) Option {
	return func(p *Plugin) { p.upload = u }
}

// WithPicker sets the file picker used by PICK_IMAGE_COMMAND.
func WithPicker(pk Picker) Option {
	return func(p *Plugin) { p.pick = pk }
}

// WithFailureHandler sets the callback for failed uploads.
func WithFailureHandler(fn func(*UploadFailure)) Option {
	return func(p *Plugin) { p.onFailure = fn }
}

// WithContext sets the parent context of uploads and picks. It is
// cancelled when the session closes.
func WithContext(ctx context.Context) Option {
	return func(p *Plugin) { p.ctx = ctx }
}

// Plugin registers the image node and its handlers.
type Plugin struct {
	upload    Uploader
	pick      Picker
	onFailure func(*UploadFailure)
	ctx       context.Context
}

// New returns an image plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{ctx: context.Background()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements editor.Plugin.
func (*Plugin) Name() string { return "image" }

// Register implements editor.Plugin.
func (p *Plugin) Register(s *editor.Session) (func(), error) {
	if err := s.Registry.Register(TypeImage, behavior()); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(p.ctx)
	h := &handlers{p: p, s: s, ctx: ctx, settled: make(map[node.Key]outcome)}
	dispatcher.Declare(s.Bus, SelectImage)
	unregister := []func(){
		dispatcher.Register(s.Bus, InsertImage, dispatcher.PriorityEditor, h.insert),
		dispatcher.Register(s.Bus, PickImage, dispatcher.PriorityEditor, h.pickImage),
		dispatcher.Register(s.Bus, editor.DragStart, dispatcher.PriorityHigh, h.dragStart),
		dispatcher.Register(s.Bus, editor.Drop, dispatcher.PriorityHigh, h.drop),
		dispatcher.Register(s.Bus, editor.Click, dispatcher.PriorityEditor, h.click),
		dispatcher.Register(s.Bus, editor.KeyDelete, dispatcher.PriorityLow, h.deleteSelected),
		dispatcher.Register(s.Bus, editor.KeyBackspace, dispatcher.PriorityLow, h.deleteSelected),
		s.Engine.Subscribe(h.announceSelection),
		s.Engine.Subscribe(h.reconcile),
	}
	return func() {
		cancel()
		for _, fn := range unregister {
			fn()
		}
	}, nil
}

type handlers struct {
	p   *Plugin
	s   *editor.Session
	ctx context.Context

	selected node.Key

	// settled holds the upload result of every placeholder, so a placeholder
	// brought back by undo or redo can be finished again.
	settled map[node.Key]outcome
}

type outcome struct {
	addr     string
	err      error
	file     string
	reported bool
}

func (h *handlers) insert(in InsertPayload) (bool, error) {
	if in.File != nil {
		if !in.File.IsImage() {
			return false, nil
		}
		src := in.Src
		if src == "" {
			src = DataURL(*in.File)
		}
		ph := NewPlaceholder(src, in.Caption)
		err := h.s.Update(func(tx *engine.Tx) error {
			tx.SetLabel("insert-image")
			return editor.InsertNodes(tx, ph)
		})
		if err != nil {
			return false, err
		}
		h.startUpload(ph.Key(), *in.File)
		return true, nil
	}
	if in.Src == "" {
		return false, fmt.Errorf("%w: %w", dispatcher.ErrInvalidPayload, ErrMissingSource)
	}
	return true, h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("insert-image")
		return editor.InsertNodes(tx, NewImage(in.Src, in.Caption))
	})
}

// startUpload runs the uploader on a goroutine and posts the resolution of
// placeholder key to the session queue.
func (h *handlers) startUpload(key node.Key, f editor.File) {
	upload := h.p.upload
	h.s.Queue.Go(func() func() {
		if upload == nil {
			return func() { h.resolve(key, f, "", ErrNoUploader) }
		}
		addr, err := upload(h.ctx, f)
		return func() { h.resolve(key, f, addr, err) }
	})
}

// resolve finishes an upload. A placeholder that is gone or already
// resolved makes it a no-op. The change is merged into the undo entry of
// the insert.
func (h *handlers) resolve(key node.Key, f editor.File, addr string, uploadErr error) {
	if uploadErr == nil && addr == "" {
		uploadErr = ErrEmptyAddress
	}
	h.settled[key] = outcome{addr: addr, err: uploadErr, file: f.Name}
	failed := false
	err := h.s.Update(func(tx *engine.Tx) error {
		done, err := finish(tx, key, h.settled[key])
		if done {
			tx.AddTag(engine.TagHistoryMerge)
			failed = uploadErr != nil
		}
		return err
	})
	if err != nil {
		h.s.Logger.Error("image upload resolution failed", "key", key, "error", err)
		return
	}
	if !failed {
		if uploadErr == nil {
			h.s.Logger.Debug("image uploaded", "key", key, "src", addr)
		}
		return
	}
	h.report(key)
}

// report passes the failed upload of key to the failure callback once.
func (h *handlers) report(key node.Key) {
	o := h.settled[key]
	if o.reported {
		return
	}
	o.reported = true
	h.settled[key] = o
	h.s.Logger.Warn("image upload failed", "key", key, "file", o.file, "error", o.err)
	if h.p.onFailure != nil {
		h.p.onFailure(&UploadFailure{Key: key, File: o.file, Err: o.err})
	}
}

// finish resolves or removes the placeholder key with the upload result o.
// It reports false when key is not a loading image.
func finish(tx *engine.Tx, key node.Key, o outcome) (bool, error) {
	img, ok := tx.Get(key).(*Image)
	if !ok || !img.IsLoading() {
		return false, nil
	}
	if o.err != nil {
		return true, tx.Remove(key)
	}
	w, err := tx.Writable(key)
	if err != nil {
		return true, err
	}
	return true, w.(*Image).Resolve(o.addr)
}

// reconcile finishes placeholders whose upload has settled but which were
// brought back by undo, redo or a load. The fix-up is not recorded in
// history.
func (h *handlers) reconcile(c engine.Change) {
	if !c.HasTag(engine.TagUndo) && !c.HasTag(engine.TagRedo) && !c.HasTag(engine.TagLoad) {
		return
	}
	var stale []node.Key
	for key := range h.settled {
		if img, ok := c.Snapshot.Get(key).(*Image); ok && img.IsLoading() {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return
	}
	err := h.s.Update(func(tx *engine.Tx) error {
		tx.AddTag(engine.TagSkipHistory)
		for _, key := range stale {
			if _, err := finish(tx, key, h.settled[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.s.Logger.Error("settle restored placeholders", "keys", stale, "error", err)
		return
	}
	for _, key := range stale {
		if o := h.settled[key]; o.err != nil {
			h.report(key)
		}
	}
}

func (h *handlers) pickImage(struct{}) (bool, error) {
	pick := h.p.pick
	if pick == nil {
		return false, nil
	}
	h.s.Queue.Go(func() func() {
		f, err := pick(h.ctx)
		return func() {
			if err != nil {
				h.s.Logger.Warn("image pick failed", "error", err)
				return
			}
			if f == nil || !f.IsImage() {
				return
			}
			if _, err := dispatcher.Dispatch(h.s.Bus, InsertImage, InsertPayload{File: f}); err != nil {
				h.s.Logger.Warn("insert picked image", "file", f.Name, "error", err)
			}
		}
	})
	return true, nil
}

// selectedImage returns the image when sel selects exactly one image node.
func selectedImage(rd node.Reader, sel selection.Selection) *Image {
	ns, ok := selection.AsNodeSet(sel)
	if !ok || ns.Len() == 0 {
		return nil
	}
	img, _ := rd.Get(ns.Keys()[0]).(*Image)
	return img
}

// DragPayload builds the transfer payload for an image.
func DragPayload(img *Image) (string, error) {
	out, err := sjson.Set(`{}`, "data.src", img.Src())
	if err != nil {
		return "", err
	}
	return sjson.Set(out, "key", string(img.Key()))
}

func (h *handlers) dragStart(dt *editor.DataTransfer) (bool, error) {
	if dt == nil {
		return false, nil
	}
	img := selectedImage(h.s.Snapshot(), h.s.Selection())
	if img == nil {
		return false, nil
	}
	payload, err := DragPayload(img)
	if err != nil {
		return false, err
	}
	dt.Set("text/plain", "_")
	dt.Set(editor.DragMIME, payload)
	return true, nil
}

func (h *handlers) drop(dt *editor.DataTransfer) (bool, error) {
	raw, ok := dt.Get(editor.DragMIME)
	if !ok || raw == "" {
		return false, h.dropFiles(dt)
	}
	if !gjson.Valid(raw) {
		return false, nil
	}
	payload := gjson.Parse(raw)
	key := node.Key(payload.Get("key").String())
	if key == "" || !payload.Get("data.src").Exists() {
		return false, nil
	}
	snap := h.s.Snapshot()
	if _, ok := snap.Get(key).(*Image); !ok {
		return false, nil
	}
	// Moves need a drop point that resolves.
	if dt.Target == nil || dt.Target.Key == key || !snap.Has(dt.Target.Key) {
		return false, nil
	}
	target := *dt.Target
	return true, h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("move-image")
		n, err := tx.Detach(key)
		if err != nil {
			return err
		}
		tx.SetSelection(selection.Caret(target))
		return editor.InsertNodes(tx, n)
	})
}

// dropFiles uploads the image files of an external drop at its target.
func (h *handlers) dropFiles(dt *editor.DataTransfer) error {
	if dt == nil {
		return nil
	}
	for _, f := range dt.Files {
		if !f.IsImage() {
			continue
		}
		if dt.Target != nil {
			target := *dt.Target
			err := h.s.Update(func(tx *engine.Tx) error {
				tx.SetSelection(selection.Caret(target))
				return nil
			})
			if err != nil {
				return err
			}
		}
		if _, err := dispatcher.Dispatch(h.s.Bus, InsertImage, InsertPayload{File: &f}); err != nil {
			return err
		}
	}
	return nil
}

// click toggles node selection of a clicked image. Shift keeps the other
// selected nodes.
func (h *handlers) click(p editor.ClickPayload) (bool, error) {
	if !IsImage(h.s.Snapshot().Get(p.Key)) {
		return false, nil
	}
	return true, h.s.Update(func(tx *engine.Tx) error {
		cur, _ := selection.AsNodeSet(tx.Selection())
		selected := cur.Has(p.Key)
		if !p.Shift {
			cur = selection.NewNodeSet()
		}
		if selected {
			cur = cur.Remove(p.Key)
		} else {
			cur = cur.Add(p.Key)
		}
		if cur.Len() == 0 {
			tx.SetSelection(nil)
		} else {
			tx.SetSelection(cur)
		}
		return nil
	})
}

// deleteSelected removes node-selected images and clears the selection.
func (h *handlers) deleteSelected(editor.KeyEvent) (bool, error) {
	ns, ok := selection.AsNodeSet(h.s.Selection())
	if !ok {
		return false, nil
	}
	snap := h.s.Snapshot()
	var images []node.Key
	for _, k := range ns.Keys() {
		if IsImage(snap.Get(k)) {
			images = append(images, k)
		}
	}
	if len(images) == 0 {
		return false, nil
	}
	return true, h.s.Update(func(tx *engine.Tx) error {
		tx.SetLabel("delete-image")
		for _, k := range images {
			if err := tx.Remove(k); err != nil {
				return err
			}
		}
		tx.SetSelection(nil)
		return nil
	})
}

// announceSelection dispatches SELECT_IMAGE_COMMAND when the selected image
// changes.
func (h *handlers) announceSelection(c engine.Change) {
	var key node.Key
	if img := selectedImage(c.Snapshot, c.Selection); img != nil {
		key = img.Key()
	}
	if key == h.selected {
		return
	}
	h.selected = key
	if _, err := dispatcher.Dispatch(h.s.Bus, SelectImage, key); err != nil {
		h.s.Logger.Warn("select image listener failed", "error", err)
	}
}
