package documents

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// MemoryProvider keeps a document tree in process memory. IDs are opaque
// and never derived from names.
type MemoryProvider struct {
	authority string

	mu     sync.RWMutex
	nodes  map[string]*memNode
	nextID int
}

type memNode struct {
	id       string
	parent   string
	name     string
	mimeType string
	children []string
	data     []byte
}

// NewMemoryProvider creates an empty in-memory provider
func NewMemoryProvider(authority string) *MemoryProvider {
	return &MemoryProvider{
		authority: authority,
		nodes:     make(map[string]*memNode),
	}
}

// AddRoot creates a top-level directory document and returns its ID.
func (p *MemoryProvider) AddRoot(displayName string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.insert("", displayName, MimeTypeDir)
}

// Authority implements Provider
func (p *MemoryProvider) Authority() string {
	return p.authority
}

// DisplayName implements Provider
func (p *MemoryProvider) DisplayName(ctx context.Context, docID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	node, ok := p.nodes[docID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	return node.name, nil
}

// Children implements Provider
func (p *MemoryProvider) Children(ctx context.Context, parentID string) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	parent, ok := p.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, parentID)
	}
	if parent.mimeType != MimeTypeDir {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, parentID)
	}

	entries := make([]ChildEntry, 0, len(parent.children))
	for _, id := range parent.children {
		child := p.nodes[id]
		entries = append(entries, ChildEntry{ID: child.id, DisplayName: child.name, MimeType: child.mimeType})
	}
	return newSliceCursor(entries), nil
}

// CreateDocument implements Provider
func (p *MemoryProvider) CreateDocument(ctx context.Context, parentID, mimeType, displayName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateDisplayName(displayName); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	parent, ok := p.nodes[parentID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, parentID)
	}
	if parent.mimeType != MimeTypeDir {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, parentID)
	}

	name, err := uniqueName(withExtension(displayName, mimeType), mimeType == MimeTypeDir, func(candidate string) bool {
		for _, id := range parent.children {
			if p.nodes[id].name == candidate {
				return true
			}
		}
		return false
	})
	if err != nil {
		return "", err
	}

	id := p.insert(parentID, name, mimeType)
	parent.children = append(parent.children, id)
	return id, nil
}

// OpenWriter implements Provider. Bytes are visible as soon as they are
// written; Close only detaches the writer.
func (p *MemoryProvider) OpenWriter(ctx context.Context, docID string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	node, ok := p.nodes[docID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	if node.mimeType == MimeTypeDir {
		return nil, fmt.Errorf("cannot write to directory %s", docID)
	}
	node.data = node.data[:0]
	return &memWriter{provider: p, id: docID}, nil
}

// IsChildDocument implements Provider
func (p *MemoryProvider) IsChildDocument(ctx context.Context, parentID, docID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.nodes[parentID]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, parentID)
	}
	node, ok := p.nodes[docID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	for {
		if node.id == parentID {
			return true, nil
		}
		if node.parent == "" {
			return false, nil
		}
		node = p.nodes[node.parent]
	}
}

// Content returns a copy of a document's bytes.
func (p *MemoryProvider) Content(docID string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	node, ok := p.nodes[docID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), node.data...), true
}

// Entry returns the listing row of a single document.
func (p *MemoryProvider) Entry(docID string) (ChildEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	node, ok := p.nodes[docID]
	if !ok {
		return ChildEntry{}, false
	}
	return ChildEntry{ID: node.id, DisplayName: node.name, MimeType: node.mimeType}, true
}

// Count returns the number of documents, roots included.
func (p *MemoryProvider) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.nodes)
}

// insert must be called with mu held.
func (p *MemoryProvider) insert(parentID, name, mimeType string) string {
	p.nextID++
	id := "doc-" + strconv.Itoa(p.nextID)
	p.nodes[id] = &memNode{id: id, parent: parentID, name: name, mimeType: mimeType}
	return id
}

type memWriter struct {
	provider *MemoryProvider
	id       string
	closed   bool
}

func (w *memWriter) Write(b []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed document %s", w.id)
	}
	w.provider.mu.Lock()
	defer w.provider.mu.Unlock()

	node, ok := w.provider.nodes[w.id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, w.id)
	}
	node.data = append(node.data, b...)
	return len(b), nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}
