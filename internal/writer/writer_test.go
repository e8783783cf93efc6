package writer

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/documents"
	"github.com/vitomein/loadintel/exportbridge/internal/grants"
	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
)

type fixture struct {
	mem      *documents.MemoryProvider
	resolver *documents.ContentResolver
	rootID   string
	tree     docref.Ref
}

func newFixture(rootName string) *fixture {
	mem := documents.NewMemoryProvider("mem")
	rootID := mem.AddRoot(rootName)
	return &fixture{
		mem:      mem,
		resolver: documents.NewContentResolver(nil, mem),
		rootID:   rootID,
		tree:     docref.Tree("mem", rootID),
	}
}

func (f *fixture) children(t *testing.T, parentID string) []documents.ChildEntry {
	t.Helper()
	cursor, err := f.mem.Children(context.Background(), parentID)
	require.NoError(t, err)
	defer cursor.Close()
	var out []documents.ChildEntry
	for cursor.Next() {
		out = append(out, cursor.Entry())
	}
	return out
}

// flakyStore injects failures into an otherwise working store.
type flakyStore struct {
	DocumentStore
	failDirCreate  bool
	failFileCreate bool
	failOpen       bool
	failWrite      bool
	failClose      bool
	closed         int
}

func (s *flakyStore) CreateDocument(ctx context.Context, parent docref.Ref, mimeType, name string) (docref.Ref, error) {
	if mimeType == documents.MimeTypeDir && s.failDirCreate {
		return docref.Ref{}, errors.New("storage full")
	}
	if mimeType != documents.MimeTypeDir && s.failFileCreate {
		return docref.Ref{}, errors.New("storage full")
	}
	return s.DocumentStore.CreateDocument(ctx, parent, mimeType, name)
}

func (s *flakyStore) OpenWriter(ctx context.Context, ref docref.Ref) (io.WriteCloser, error) {
	if s.failOpen {
		return nil, errors.New("provider crashed")
	}
	w, err := s.DocumentStore.OpenWriter(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &flakyWriter{WriteCloser: w, store: s}, nil
}

type flakyWriter struct {
	io.WriteCloser
	store *flakyStore
}

func (w *flakyWriter) Write(b []byte) (int, error) {
	if w.store.failWrite {
		n, _ := w.WriteCloser.Write(b[:len(b)/2])
		return n, errors.New("broken pipe")
	}
	return w.WriteCloser.Write(b)
}

func (w *flakyWriter) Close() error {
	w.store.closed++
	if err := w.WriteCloser.Close(); err != nil {
		return err
	}
	if w.store.failClose {
		return errors.New("flush failed")
	}
	return nil
}

type countingObserver struct {
	resolutions []Resolution
	bytes       int
}

func (o *countingObserver) ObserveResolution(r Resolution) { o.resolutions = append(o.resolutions, r) }
func (o *countingObserver) ObserveBytesWritten(n int)      { o.bytes += n }

func TestWriteCreatesSubdirectoryAndDocument(t *testing.T) {
	f := newFixture("Exports")
	obs := &countingObserver{}
	w := New(Config{Store: f.resolver, Observer: obs, Logger: zap.NewNop()})
	payload := []byte("id,value\n1,42\n")

	uri, err := w.WriteFile(context.Background(), Request{
		TreeURI:  f.tree.String(),
		SubDir:   "Reports",
		FileName: "out.csv",
		MimeType: "text/csv",
		Bytes:    payload,
	})
	require.NoError(t, err)

	rootChildren := f.children(t, f.rootID)
	require.Len(t, rootChildren, 1)
	assert.Equal(t, "Reports", rootChildren[0].DisplayName)
	assert.True(t, rootChildren[0].IsDir())

	reportChildren := f.children(t, rootChildren[0].ID)
	require.Len(t, reportChildren, 1)
	assert.Equal(t, "out.csv", reportChildren[0].DisplayName)

	created, err := docref.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, reportChildren[0].ID, created.DocID)
	assert.Equal(t, f.tree.TreeURI(), created.TreeURI())

	content, ok := f.mem.Content(created.DocID)
	require.True(t, ok)
	assert.Equal(t, payload, content)

	assert.Equal(t, []Resolution{ResolvedCreated}, obs.resolutions)
	assert.Equal(t, len(payload), obs.bytes)
}

func TestWriteWithoutSubdirectoryUsesRoot(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: f.resolver})

	for _, subDir := range []string{"", "   "} {
		_, err := w.WriteFile(context.Background(), Request{
			TreeURI: f.tree.String(), SubDir: subDir, FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("x"),
		})
		require.NoError(t, err)
	}

	entries := f.children(t, f.rootID)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].DisplayName)
	assert.Equal(t, "a (1).txt", entries[1].DisplayName)
}

func TestWriteAcceptsEmptyPayload(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: f.resolver})

	uri, err := w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), FileName: "empty.txt", MimeType: "text/plain", Bytes: []byte{},
	})
	require.NoError(t, err)

	ref, _ := docref.Parse(uri)
	content, ok := f.mem.Content(ref.DocID)
	require.True(t, ok)
	assert.Empty(t, content)
}

func TestWriteInvalidArgs(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: f.resolver})
	valid := Request{TreeURI: f.tree.String(), FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("x")}

	tests := []struct {
		name    string
		mutate  func(r *Request)
		missing string
	}{
		{"no tree", func(r *Request) { r.TreeURI = "" }, "TreeURI"},
		{"no file name", func(r *Request) { r.FileName = "" }, "FileName"},
		{"no mime type", func(r *Request) { r.MimeType = "" }, "MimeType"},
		{"no bytes", func(r *Request) { r.Bytes = nil }, "Bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := w.WriteFile(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidArgs)
			assert.Contains(t, err.Error(), tt.missing)
			assert.Equal(t, 1, f.mem.Count(), "no document may be created")
		})
	}
}

func TestWritePayloadLimit(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: f.resolver, MaxPayloadBytes: 4})

	_, err := w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), FileName: "a.bin", MimeType: "application/octet-stream", Bytes: []byte("12345"),
	})
	assert.ErrorIs(t, err, ErrInvalidArgs)
	assert.Equal(t, 1, f.mem.Count())
}

func TestWriteMalformedTreeIsCreateFailure(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: f.resolver})

	_, err := w.WriteFile(context.Background(), Request{
		TreeURI: "file:///sdcard", FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("x"),
	})
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.ErrorIs(t, err, docref.ErrMalformed)
}

func TestWriteRevokedGrantFailsCreate(t *testing.T) {
	f := newFixture("Exports")
	store, err := grants.Open(filepath.Join(t.TempDir(), "grants.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Take(f.tree.String(), documents.AccessRead|documents.AccessWrite)
	require.NoError(t, err)
	require.NoError(t, store.Release(f.tree.String()))

	resolver := documents.NewContentResolver(store, f.mem)
	obs := &countingObserver{}
	w := New(Config{Store: resolver, Observer: obs})

	_, err = w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), SubDir: "Reports", FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("x"),
	})
	require.ErrorIs(t, err, ErrCreateFailed)
	assert.ErrorIs(t, err, documents.ErrPermissionDenied)
	assert.Equal(t, 1, f.mem.Count())
	assert.Equal(t, []Resolution{ResolvedFallbackRoot}, obs.resolutions)
}

func TestWriteCreateFailure(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: &flakyStore{DocumentStore: f.resolver, failFileCreate: true}})

	_, err := w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("x"),
	})
	assert.ErrorIs(t, err, ErrCreateFailed)
}

func TestWriteOpenFailureLeavesDocument(t *testing.T) {
	f := newFixture("Exports")
	w := New(Config{Store: &flakyStore{DocumentStore: f.resolver, failOpen: true}})

	_, err := w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("x"),
	})
	require.ErrorIs(t, err, ErrWriteFailed)
	assert.Contains(t, err.Error(), "provider crashed")

	entries := f.children(t, f.rootID)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].DisplayName)
}

func TestWriteFailureClosesStream(t *testing.T) {
	f := newFixture("Exports")
	store := &flakyStore{DocumentStore: f.resolver, failWrite: true}
	w := New(Config{Store: store})

	_, err := w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("abcdef"),
	})
	require.ErrorIs(t, err, ErrWriteFailed)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, 1, store.closed)

	entries := f.children(t, f.rootID)
	require.Len(t, entries, 1)
	content, _ := f.mem.Content(entries[0].ID)
	assert.Equal(t, "abc", string(content))
}

func TestWriteCloseFailureReportsWriteFailed(t *testing.T) {
	f := newFixture("Exports")
	store := &flakyStore{DocumentStore: f.resolver, failClose: true}
	obs := &countingObserver{}
	w := New(Config{Store: store, Observer: obs})

	_, err := w.WriteFile(context.Background(), Request{
		TreeURI: f.tree.String(), FileName: "a.txt", MimeType: "text/plain", Bytes: []byte("abcdef"),
	})
	require.ErrorIs(t, err, ErrWriteFailed)
	assert.Contains(t, err.Error(), "flush failed")
	assert.Equal(t, 1, store.closed)
	assert.Zero(t, obs.bytes)

	entries := f.children(t, f.rootID)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].DisplayName)
}
