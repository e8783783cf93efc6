package docref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeRoundTrip(t *testing.T) {
	tree := Tree("com.android.externalstorage.documents", "primary:Documents")

	encoded := tree.String()
	assert.Equal(t, "content://com.android.externalstorage.documents/tree/primary%3ADocuments", encoded)

	parsed, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, tree, parsed)
	assert.True(t, parsed.IsTree())
	assert.Equal(t, "primary:Documents", parsed.TargetID())
}

func TestDocumentThroughTree(t *testing.T) {
	tree := Tree("local", "primary:Exports")
	child := tree.Document("primary:Exports/Reports/out (1).csv")

	parsed, err := Parse(child.String())
	require.NoError(t, err)
	assert.False(t, parsed.IsTree())
	assert.Equal(t, "primary:Exports/Reports/out (1).csv", parsed.DocID)
	assert.Equal(t, "primary:Exports", parsed.TreeDocID)
	assert.Equal(t, tree.String(), parsed.TreeURI())
}

func TestRoot(t *testing.T) {
	tree := Tree("local", "primary:Exports")
	root := tree.Root()

	assert.Equal(t, "primary:Exports", root.DocID)
	assert.Equal(t, "content://local/tree/primary%3AExports/document/primary%3AExports", root.String())
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong scheme", "file:///tmp/x"},
		{"no authority", "content:///tree/x"},
		{"no tree segment", "content://local/document/x"},
		{"dangling document", "content://local/tree/x/document"},
		{"empty tree id", "content://local/tree/"},
		{"extra segments", "content://local/tree/a/document/b/c"},
		{"bad escape", "content://local/tree/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDocumentURI(t *testing.T) {
	assert.Equal(t,
		"content://com.android.externalstorage.documents/document/primary%3ADocuments",
		DocumentURI("com.android.externalstorage.documents", "primary:Documents"),
	)
}

func TestParseDocumentURI(t *testing.T) {
	authority, docID, err := ParseDocumentURI(DocumentURI("local", "primary:Documents"))
	require.NoError(t, err)
	assert.Equal(t, "local", authority)
	assert.Equal(t, "primary:Documents", docID)

	_, _, err = ParseDocumentURI(Tree("local", "primary:Documents").String())
	assert.ErrorIs(t, err, ErrMalformed)
}
