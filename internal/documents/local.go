package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	defaultBatchSize = 64
	fallbackMimeType = "application/octet-stream"
)

// Volume is a named directory served by a LocalProvider.
type Volume struct {
	ID    string `toml:"id"`
	Path  string `toml:"path"`
	Label string `toml:"label"`
}

// LocalProvider serves documents from directories on disk.
// Document IDs have the form "{volume}:{slash separated relative path}".
type LocalProvider struct {
	authority string
	volumes   map[string]Volume
	batchSize int
	logger    *zap.Logger
}

// NewLocalProvider creates a provider over the given volumes
func NewLocalProvider(authority string, volumes []Volume, logger *zap.Logger) (*LocalProvider, error) {
	if authority == "" {
		return nil, fmt.Errorf("authority cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byID := make(map[string]Volume, len(volumes))
	for _, v := range volumes {
		if v.ID == "" || strings.Contains(v.ID, ":") {
			return nil, fmt.Errorf("invalid volume id %q", v.ID)
		}
		abs, err := filepath.Abs(v.Path)
		if err != nil {
			return nil, fmt.Errorf("volume %s: %w", v.ID, err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("volume %s: %w", v.ID, err)
		}
		v.Path = abs
		if v.Label == "" {
			v.Label = filepath.Base(abs)
		}
		byID[v.ID] = v
	}

	return &LocalProvider{
		authority: authority,
		volumes:   byID,
		batchSize: defaultBatchSize,
		logger:    logger,
	}, nil
}

// Authority implements Provider
func (p *LocalProvider) Authority() string {
	return p.authority
}

// DocumentID returns the ID of a path relative to a volume root.
func DocumentID(volumeID, rel string) string {
	return volumeID + ":" + strings.Trim(filepath.ToSlash(rel), "/")
}

// DisplayName implements Provider
func (p *LocalProvider) DisplayName(ctx context.Context, docID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	vol, rel, abs, err := p.resolve(docID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", statError(docID, err)
	}
	if rel == "" {
		return vol.Label, nil
	}
	return path.Base(rel), nil
}

// Children implements Provider
func (p *LocalProvider) Children(ctx context.Context, parentID string) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vol, rel, abs, err := p.resolve(parentID)
	if err != nil {
		return nil, err
	}

	dir, err := os.Open(abs)
	if err != nil {
		return nil, statError(parentID, err)
	}
	info, err := dir.Stat()
	if err != nil {
		dir.Close()
		return nil, statError(parentID, err)
	}
	if !info.IsDir() {
		dir.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, parentID)
	}

	return &dirCursor{
		ctx:       ctx,
		dir:       dir,
		abs:       abs,
		volumeID:  vol.ID,
		rel:       rel,
		batchSize: p.batchSize,
		logger:    p.logger,
	}, nil
}

// CreateDocument implements Provider
func (p *LocalProvider) CreateDocument(ctx context.Context, parentID, mimeType, displayName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateDisplayName(displayName); err != nil {
		return "", err
	}
	vol, rel, abs, err := p.resolve(parentID)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", statError(parentID, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, parentID)
	}

	isDir := mimeType == MimeTypeDir
	name, err := uniqueName(withExtension(displayName, mimeType), isDir, func(candidate string) bool {
		_, err := os.Lstat(filepath.Join(abs, candidate))
		return err == nil
	})
	if err != nil {
		return "", err
	}

	target := filepath.Join(abs, name)
	if isDir {
		if err := os.Mkdir(target, 0o755); err != nil {
			return "", fmt.Errorf("create directory %s: %w", name, err)
		}
	} else {
		f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return "", fmt.Errorf("create file %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("create file %s: %w", name, err)
		}
	}

	docID := DocumentID(vol.ID, path.Join(rel, name))
	p.logger.Debug("Document created",
		zap.String("parent", parentID),
		zap.String("document", docID),
		zap.String("mime_type", mimeType),
	)
	return docID, nil
}

// OpenWriter implements Provider
func (p *LocalProvider) OpenWriter(ctx context.Context, docID string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, _, abs, err := p.resolve(docID)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, statError(docID, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot write to directory %s", docID)
	}
	return os.OpenFile(abs, os.O_WRONLY|os.O_TRUNC, 0)
}

// Path returns the absolute filesystem path of a document ID.
func (p *LocalProvider) Path(docID string) (string, error) {
	_, _, abs, err := p.resolve(docID)
	return abs, err
}

// IsChildDocument implements Provider. Containment follows the path
// encoded in the IDs, so neither document has to exist yet.
func (p *LocalProvider) IsChildDocument(ctx context.Context, parentID, docID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	parentVol, parentRel, _, err := p.resolve(parentID)
	if err != nil {
		return false, err
	}
	vol, rel, _, err := p.resolve(docID)
	if err != nil {
		return false, err
	}
	if vol.ID != parentVol.ID {
		return false, nil
	}
	return parentRel == "" || rel == parentRel || strings.HasPrefix(rel, parentRel+"/"), nil
}

// DocumentIDForPath maps a filesystem path inside a volume to its
// document ID.
func (p *LocalProvider) DocumentIDForPath(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	for _, vol := range p.volumes {
		rel, err := filepath.Rel(vol.Path, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			rel = ""
		}
		return DocumentID(vol.ID, rel), nil
	}
	return "", fmt.Errorf("%w: %s is outside every volume", ErrNotFound, target)
}

// resolve maps a document ID to its volume, relative path and absolute path.
func (p *LocalProvider) resolve(docID string) (Volume, string, string, error) {
	volumeID, rel, ok := strings.Cut(docID, ":")
	if !ok {
		return Volume{}, "", "", fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	vol, ok := p.volumes[volumeID]
	if !ok {
		return Volume{}, "", "", fmt.Errorf("%w: unknown volume %q", ErrNotFound, volumeID)
	}

	rel = strings.Trim(rel, "/")
	for _, part := range strings.Split(rel, "/") {
		if part == ".." || part == "." {
			return Volume{}, "", "", fmt.Errorf("%w: %s escapes volume", ErrNotFound, docID)
		}
	}
	return vol, rel, filepath.Join(vol.Path, filepath.FromSlash(rel)), nil
}

func statError(docID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	return err
}

// dirCursor reads a directory in batches as the caller advances.
type dirCursor struct {
	ctx       context.Context
	dir       *os.File
	abs       string
	volumeID  string
	rel       string
	batchSize int
	logger    *zap.Logger

	batch   []os.DirEntry
	current ChildEntry
	done    bool
	err     error
}

func (c *dirCursor) Next() bool {
	if c.done {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		c.done = true
		return false
	}

	if len(c.batch) == 0 {
		entries, err := c.dir.ReadDir(c.batchSize)
		if err != nil && !errors.Is(err, io.EOF) {
			c.err = err
		}
		if len(entries) == 0 {
			c.done = true
			return false
		}
		c.batch = entries
	}

	entry := c.batch[0]
	c.batch = c.batch[1:]
	c.current = ChildEntry{
		ID:          DocumentID(c.volumeID, path.Join(c.rel, entry.Name())),
		DisplayName: entry.Name(),
		MimeType:    c.mimeType(entry),
	}
	return true
}

func (c *dirCursor) mimeType(entry os.DirEntry) string {
	if entry.IsDir() {
		return MimeTypeDir
	}
	mt, err := mimetype.DetectFile(filepath.Join(c.abs, entry.Name()))
	if err != nil {
		c.logger.Debug("MIME detection failed", zap.String("name", entry.Name()), zap.Error(err))
		return fallbackMimeType
	}
	return mt.String()
}

func (c *dirCursor) Entry() ChildEntry { return c.current }
func (c *dirCursor) Err() error        { return c.err }

func (c *dirCursor) Close() error {
	c.done = true
	return c.dir.Close()
}
