package image

import (
	"encoding/base64"
	"fmt"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/node"
	"github.com/dshills/folio/internal/schema"
)

// TypeImage is the image type tag.
const TypeImage = "Image"

// Image is an inline image. The loading flag is runtime state and is never
// serialized.
type Image struct {
	node.LeafBase
	src     string
	caption string
	loading bool
}

// NewImage returns a resolved image.
func NewImage(src, caption string) *Image {
	return &Image{LeafBase: node.NewLeafBase(""), src: src, caption: caption}
}

// NewPlaceholder returns a loading image showing preview.
func NewPlaceholder(preview, caption string) *Image {
	img := NewImage(preview, caption)
	img.loading = true
	return img
}

// Type implements node.Node.
func (*Image) Type() string { return TypeImage }

// Src returns the image address.
func (n *Image) Src() string { return n.src }

// Caption returns the caption, used as alt text.
func (n *Image) Caption() string { return n.caption }

// IsLoading reports whether the image is a placeholder awaiting upload.
func (n *Image) IsLoading() bool { return n.loading }

// Resolve sets the uploaded address and clears the loading flag.
func (n *Image) Resolve(src string) error {
	if err := n.CheckWritable(); err != nil {
		return err
	}
	n.src = src
	n.loading = false
	return nil
}

// SetCaption changes the caption.
func (n *Image) SetCaption(c string) error {
	if err := n.CheckWritable(); err != nil {
		return err
	}
	n.caption = c
	return nil
}

// Clone implements node.Node.
func (n *Image) Clone() node.Node {
	c := *n
	return node.Thaw(&c)
}

// IsImage reports whether n is an image.
func IsImage(n node.Node) bool {
	_, ok := n.(*Image)
	return ok
}

// DataURL encodes f as a data URL for placeholder previews.
func DataURL(f editor.File) string {
	return fmt.Sprintf("data:%s;base64,%s", f.MIME, base64.StdEncoding.EncodeToString(f.Data))
}

func behavior() schema.Behavior {
	return schema.Behavior{
		Version: 1,
		Create: func(p schema.Props) (node.Node, error) {
			src := p.String("src", "")
			if src == "" {
				return nil, ErrMissingSource
			}
			return NewImage(src, p.String("caption", "")), nil
		},
		Import: func(rec schema.Record) (node.Node, error) {
			src, ok := rec.String("src")
			if !ok {
				return nil, fmt.Errorf("%w: image record without src", schema.ErrInvalidRecord)
			}
			caption, _ := rec.String("caption")
			return NewImage(src, caption), nil
		},
		Export: func(n node.Node) (map[string]any, error) {
			img := n.(*Image)
			attrs := map[string]any{"src": img.Src()}
			if img.Caption() != "" {
				attrs["caption"] = img.Caption()
			}
			return attrs, nil
		},
	}
}
