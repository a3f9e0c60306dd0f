package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"

	"github.com/dshills/folio/internal/schema"
)

// Kind is the top-level bucket of a stored item.
type Kind string

// Buckets.
const (
	KindDocument Kind = "docs"
	KindBlob     Kind = "blobs"
)

// Store keeps documents and blobs in a diskv tree.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// Open returns a store rooted at basePath, creating the directory.
func Open(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, ErrNoBasePath
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      4 * 1024 * 1024,
		}),
		basePath: basePath,
	}, nil
}

// BasePath returns the store directory.
func (s *Store) BasePath() string { return s.basePath }

func key(kind Kind, id string) string { return string(kind) + "/" + id }

func keyToPath(k string) *diskv.PathKey {
	kind, id, _ := strings.Cut(k, "/")
	return &diskv.PathKey{Path: []string{kind}, FileName: id}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(pk.Path, "/") + "/" + pk.FileName
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func (s *Store) read(kind Kind, id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := s.d.Read(key(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return data, err
}

// NewID returns a fresh document ID.
func NewID() string { return uuid.NewString() }

// SaveDocument writes doc under id.
func (s *Store) SaveDocument(id string, doc schema.Document) error {
	if err := validID(id); err != nil {
		return err
	}
	data, err := schema.Encode(doc)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", id, err)
	}
	return s.d.Write(key(KindDocument, id), data)
}

// LoadDocument reads the document stored under id.
func (s *Store) LoadDocument(id string) (schema.Document, error) {
	data, err := s.read(KindDocument, id)
	if err != nil {
		return schema.Document{}, err
	}
	doc, err := schema.Decode(data)
	if err != nil {
		return schema.Document{}, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return doc, nil
}

// HasDocument reports whether id is stored.
func (s *Store) HasDocument(id string) bool {
	return validID(id) == nil && s.d.Has(key(KindDocument, id))
}

// DeleteDocument removes the document stored under id.
func (s *Store) DeleteDocument(id string) error {
	if !s.HasDocument(id) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, KindDocument, id)
	}
	return s.d.Erase(key(KindDocument, id))
}

// Documents returns the stored document IDs in sorted order.
func (s *Store) Documents(ctx context.Context) []string {
	return s.list(ctx, KindDocument)
}

// Blobs returns the stored blob names in sorted order.
func (s *Store) Blobs(ctx context.Context) []string {
	return s.list(ctx, KindBlob)
}

func (s *Store) list(ctx context.Context, kind Kind) []string {
	var out []string
	for k := range s.d.KeysPrefix(string(kind)+"/", ctx.Done()) {
		out = append(out, strings.TrimPrefix(k, string(kind)+"/"))
	}
	slices.Sort(out)
	return out
}

// PutBlob stores data under a new name whose extension matches mimeType
// and returns the name.
func (s *Store) PutBlob(mimeType string, data []byte) (string, error) {
	name := uuid.NewString()
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		name += exts[0]
	}
	if err := s.d.Write(key(KindBlob, name), data); err != nil {
		return "", fmt.Errorf("store: write blob: %w", err)
	}
	return name, nil
}

// Blob returns the data and MIME type of a stored blob.
func (s *Store) Blob(name string) ([]byte, string, error) {
	data, err := s.read(KindBlob, name)
	if err != nil {
		return nil, "", err
	}
	typ := mime.TypeByExtension(filepath.Ext(name))
	if typ == "" {
		typ = "application/octet-stream"
	}
	return data, typ, nil
}
