package documents

import (
	"context"
	"errors"
	"io"
)

// MimeTypeDir marks directory documents.
const MimeTypeDir = "vnd.android.document/directory"

var (
	// ErrNotFound is returned when a document ID does not resolve.
	ErrNotFound = errors.New("document not found")
	// ErrNotDirectory is returned when children are requested of a file.
	ErrNotDirectory = errors.New("document is not a directory")
	// ErrInvalidName is returned for display names a provider cannot store.
	ErrInvalidName = errors.New("invalid display name")
	// ErrPermissionDenied is returned when no grant covers a handle.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNoProvider is returned for handles with an unknown authority.
	ErrNoProvider = errors.New("no provider for authority")
)

// ChildEntry is one row of a child listing.
type ChildEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	MimeType    string `json:"mime_type"`
}

// IsDir reports whether the entry is a directory document.
func (e ChildEntry) IsDir() bool {
	return e.MimeType == MimeTypeDir
}

// Cursor iterates a child listing. It is finite and cannot be rewound.
// Callers must Close it.
type Cursor interface {
	Next() bool
	Entry() ChildEntry
	Err() error
	Close() error
}

// Provider owns the documents of one authority.
type Provider interface {
	// Authority is the handle authority this provider serves.
	Authority() string

	// DisplayName returns the user-visible name of a document.
	DisplayName(ctx context.Context, docID string) (string, error)

	// Children lists the immediate children of a directory document.
	Children(ctx context.Context, parentID string) (Cursor, error)

	// CreateDocument creates a new document under parentID and returns its
	// ID. A colliding name is adjusted by the provider, never overwritten.
	CreateDocument(ctx context.Context, parentID, mimeType, displayName string) (string, error)

	// OpenWriter opens a document for writing, truncating existing content.
	OpenWriter(ctx context.Context, docID string) (io.WriteCloser, error)

	// IsChildDocument reports whether docID is parentID or lies anywhere
	// beneath it.
	IsChildDocument(ctx context.Context, parentID, docID string) (bool, error)
}

// sliceCursor serves a listing that is already in memory.
type sliceCursor struct {
	entries []ChildEntry
	pos     int
}

func newSliceCursor(entries []ChildEntry) *sliceCursor {
	return &sliceCursor{entries: entries, pos: -1}
}

func (c *sliceCursor) Next() bool {
	if c.pos+1 >= len(c.entries) {
		c.pos = len(c.entries)
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Entry() ChildEntry {
	if c.pos < 0 || c.pos >= len(c.entries) {
		return ChildEntry{}
	}
	return c.entries[c.pos]
}

func (c *sliceCursor) Err() error   { return nil }
func (c *sliceCursor) Close() error { return nil }
