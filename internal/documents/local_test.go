package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	root := t.TempDir()
	p, err := NewLocalProvider("local", []Volume{{ID: "primary", Path: root, Label: "Internal storage"}}, nil)
	require.NoError(t, err)
	return p, root
}

func collect(t *testing.T, c Cursor) []ChildEntry {
	t.Helper()
	defer c.Close()
	var out []ChildEntry
	for c.Next() {
		out = append(out, c.Entry())
	}
	require.NoError(t, c.Err())
	return out
}

func TestLocalDisplayName(t *testing.T) {
	p, root := newTestLocal(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Documents", "Exports"), 0o755))

	name, err := p.DisplayName(ctx, "primary:")
	require.NoError(t, err)
	assert.Equal(t, "Internal storage", name)

	name, err = p.DisplayName(ctx, "primary:Documents/Exports")
	require.NoError(t, err)
	assert.Equal(t, "Exports", name)

	_, err = p.DisplayName(ctx, "primary:Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.DisplayName(ctx, "sdcard:Documents")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRejectsEscapes(t *testing.T) {
	p, _ := newTestLocal(t)

	_, err := p.DisplayName(context.Background(), "primary:../etc")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.CreateDocument(context.Background(), "primary:Documents/..", "text/plain", "x.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalIsChildDocument(t *testing.T) {
	p, _ := newTestLocal(t)
	ctx := context.Background()

	for _, tc := range []struct {
		parent, doc string
		want        bool
	}{
		{"primary:", "primary:Documents/a.txt", true},
		{"primary:Documents", "primary:Documents", true},
		{"primary:Documents", "primary:Documents/Exports/a.txt", true},
		{"primary:Documents", "primary:DocumentsOld/a.txt", false},
		{"primary:Documents/Exports", "primary:Documents", false},
		{"primary:Documents", "primary:notes.txt", false},
	} {
		got, err := p.IsChildDocument(ctx, tc.parent, tc.doc)
		require.NoError(t, err, "%s in %s", tc.doc, tc.parent)
		assert.Equal(t, tc.want, got, "%s in %s", tc.doc, tc.parent)
	}

	_, err := p.IsChildDocument(ctx, "primary:Documents", "primary:Documents/../../etc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.IsChildDocument(ctx, "primary:", "sdcard:a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalChildren(t *testing.T) {
	p, root := newTestLocal(t)
	p.batchSize = 2
	require.NoError(t, os.Mkdir(filepath.Join(root, "Reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.json"), []byte(`{"a":1}`), 0o644))

	cursor, err := p.Children(context.Background(), "primary:")
	require.NoError(t, err)
	entries := collect(t, cursor)
	require.Len(t, entries, 3)

	byName := make(map[string]ChildEntry)
	for _, e := range entries {
		byName[e.DisplayName] = e
	}
	assert.True(t, byName["Reports"].IsDir())
	assert.Equal(t, "primary:Reports", byName["Reports"].ID)
	assert.Contains(t, byName["notes.txt"].MimeType, "text/plain")
	assert.Equal(t, "application/json", byName["data.json"].MimeType)

	_, err = p.Children(context.Background(), "primary:notes.txt")
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestLocalCreateDocument(t *testing.T) {
	p, root := newTestLocal(t)
	ctx := context.Background()

	dirID, err := p.CreateDocument(ctx, "primary:", MimeTypeDir, "Reports")
	require.NoError(t, err)
	assert.Equal(t, "primary:Reports", dirID)
	info, err := os.Stat(filepath.Join(root, "Reports"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	first, err := p.CreateDocument(ctx, dirID, "text/csv", "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "primary:Reports/out.csv", first)

	second, err := p.CreateDocument(ctx, dirID, "text/csv", "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "primary:Reports/out (1).csv", second)

	noExt, err := p.CreateDocument(ctx, dirID, "application/pdf", "summary")
	require.NoError(t, err)
	assert.Equal(t, "primary:Reports/summary.pdf", noExt)

	_, err = p.CreateDocument(ctx, dirID, "text/plain", "a/b.txt")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = p.CreateDocument(ctx, "primary:Missing", "text/plain", "x.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalOpenWriter(t *testing.T) {
	p, root := newTestLocal(t)
	ctx := context.Background()

	id, err := p.CreateDocument(ctx, "primary:", "text/plain", "log.txt")
	require.NoError(t, err)

	w, err := p.OpenWriter(ctx, id)
	require.NoError(t, err)
	_, err = w.Write([]byte("first line"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(root, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first line", string(data))

	_, err = p.OpenWriter(ctx, "primary:")
	assert.Error(t, err)
}

func TestLocalCanceledContext(t *testing.T) {
	p, _ := newTestLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.DisplayName(ctx, "primary:")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalPathMapping(t *testing.T) {
	p, root := newTestLocal(t)

	id, err := p.DocumentIDForPath(filepath.Join(root, "Documents", "Exports"))
	require.NoError(t, err)
	assert.Equal(t, "primary:Documents/Exports", id)

	id, err = p.DocumentIDForPath(root)
	require.NoError(t, err)
	assert.Equal(t, "primary:", id)

	_, err = p.DocumentIDForPath(filepath.Dir(root))
	assert.ErrorIs(t, err, ErrNotFound)

	abs, err := p.Path("primary:Documents")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Documents"), abs)
}
