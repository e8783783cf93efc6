package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderTree(t *testing.T) {
	p := NewMemoryProvider("mem")
	ctx := context.Background()
	root := p.AddRoot("Exports")

	name, err := p.DisplayName(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, "Exports", name)

	dir, err := p.CreateDocument(ctx, root, MimeTypeDir, "Reports")
	require.NoError(t, err)
	file, err := p.CreateDocument(ctx, dir, "text/csv", "out.csv")
	require.NoError(t, err)
	dup, err := p.CreateDocument(ctx, dir, "text/csv", "out.csv")
	require.NoError(t, err)

	entry, ok := p.Entry(dup)
	require.True(t, ok)
	assert.Equal(t, "out (1).csv", entry.DisplayName)

	cursor, err := p.Children(ctx, dir)
	require.NoError(t, err)
	entries := collect(t, cursor)
	require.Len(t, entries, 2)
	assert.Equal(t, file, entries[0].ID)
	assert.False(t, entries[0].IsDir())

	_, err = p.Children(ctx, file)
	assert.ErrorIs(t, err, ErrNotDirectory)
	assert.Equal(t, 4, p.Count())
}

func TestMemoryIsChildDocument(t *testing.T) {
	p := NewMemoryProvider("mem")
	ctx := context.Background()
	root := p.AddRoot("Exports")
	other := p.AddRoot("Private")

	dir, err := p.CreateDocument(ctx, root, MimeTypeDir, "Reports")
	require.NoError(t, err)
	file, err := p.CreateDocument(ctx, dir, "text/csv", "out.csv")
	require.NoError(t, err)

	for _, tc := range []struct {
		parent, doc string
		want        bool
	}{
		{root, root, true},
		{root, file, true},
		{dir, file, true},
		{file, dir, false},
		{other, file, false},
		{dir, root, false},
	} {
		got, err := p.IsChildDocument(ctx, tc.parent, tc.doc)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s in %s", tc.doc, tc.parent)
	}

	_, err = p.IsChildDocument(ctx, root, "doc-99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProviderWriter(t *testing.T) {
	p := NewMemoryProvider("mem")
	ctx := context.Background()
	root := p.AddRoot("Exports")
	file, err := p.CreateDocument(ctx, root, "text/plain", "a.txt")
	require.NoError(t, err)

	w, err := p.OpenWriter(ctx, file)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.Error(t, err)

	data, ok := p.Content(file)
	require.True(t, ok)
	assert.Equal(t, "abcdef", string(data))

	_, err = p.OpenWriter(ctx, root)
	assert.Error(t, err)
}

func TestSliceCursorIsNotRestartable(t *testing.T) {
	c := newSliceCursor([]ChildEntry{{ID: "a"}})

	assert.True(t, c.Next())
	assert.Equal(t, "a", c.Entry().ID)
	assert.False(t, c.Next())
	assert.False(t, c.Next())
	assert.Equal(t, ChildEntry{}, c.Entry())
}
