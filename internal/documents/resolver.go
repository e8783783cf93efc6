package documents

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
)

// Access is the kind of access an operation needs on a tree.
type Access int

const (
	AccessRead Access = 1 << iota
	AccessWrite
)

// String returns a readable access name
func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessRead | AccessWrite:
		return "read|write"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// PermissionChecker decides whether a handle may be accessed.
type PermissionChecker interface {
	CheckURIPermission(ref docref.Ref, access Access) error
}

// ContentResolver routes handles to the provider owning their authority.
type ContentResolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
	checker   PermissionChecker
}

// NewContentResolver creates a resolver. A nil checker allows every access.
func NewContentResolver(checker PermissionChecker, providers ...Provider) *ContentResolver {
	r := &ContentResolver{
		providers: make(map[string]Provider),
		checker:   checker,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider for its authority.
func (r *ContentResolver) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Authority()] = p
}

// Provider returns the provider registered for an authority.
func (r *ContentResolver) Provider(authority string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[authority]
	return p, ok
}

// DisplayName queries the display name of the document ref points at.
func (r *ContentResolver) DisplayName(ctx context.Context, ref docref.Ref) (string, error) {
	p, err := r.authorize(ctx, ref, AccessRead)
	if err != nil {
		return "", err
	}
	return p.DisplayName(ctx, ref.TargetID())
}

// Children lists the children of the directory ref points at.
func (r *ContentResolver) Children(ctx context.Context, ref docref.Ref) (Cursor, error) {
	p, err := r.authorize(ctx, ref, AccessRead)
	if err != nil {
		return nil, err
	}
	return p.Children(ctx, ref.TargetID())
}

// CreateDocument creates a document under parent and returns its handle,
// scoped to the same tree.
func (r *ContentResolver) CreateDocument(ctx context.Context, parent docref.Ref, mimeType, displayName string) (docref.Ref, error) {
	p, err := r.authorize(ctx, parent, AccessWrite)
	if err != nil {
		return docref.Ref{}, err
	}
	id, err := p.CreateDocument(ctx, parent.TargetID(), mimeType, displayName)
	if err != nil {
		return docref.Ref{}, err
	}
	return parent.Document(id), nil
}

// OpenWriter opens the document ref points at for writing.
func (r *ContentResolver) OpenWriter(ctx context.Context, ref docref.Ref) (io.WriteCloser, error) {
	p, err := r.authorize(ctx, ref, AccessWrite)
	if err != nil {
		return nil, err
	}
	return p.OpenWriter(ctx, ref.TargetID())
}

// authorize checks the tree grant and that the target lies inside the tree.
func (r *ContentResolver) authorize(ctx context.Context, ref docref.Ref, access Access) (Provider, error) {
	p, ok := r.Provider(ref.Authority)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, ref.Authority)
	}
	if r.checker != nil {
		if err := r.checker.CheckURIPermission(ref, access); err != nil {
			return nil, err
		}
	}
	if ref.IsTree() || ref.DocID == ref.TreeDocID {
		return p, nil
	}
	inside, err := p.IsChildDocument(ctx, ref.TreeDocID, ref.DocID)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, fmt.Errorf("%w: %s is outside tree %s", ErrPermissionDenied, ref.DocID, ref.TreeDocID)
	}
	return p, nil
}
