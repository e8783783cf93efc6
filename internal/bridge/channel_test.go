package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitomein/loadintel/exportbridge/internal/documents"
	"github.com/vitomein/loadintel/exportbridge/internal/grants"
	"github.com/vitomein/loadintel/exportbridge/internal/picker"
	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
	"github.com/vitomein/loadintel/exportbridge/internal/types"
	"github.com/vitomein/loadintel/exportbridge/internal/writer"
)

type memGrants struct{}

func (memGrants) Take(uri string, access documents.Access) (grants.Grant, error) {
	return grants.Grant{URI: uri, Access: access}, nil
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) RecordChannelCall(method, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+":"+outcome)
}

type harness struct {
	channel *ExportChannel
	picker  *picker.Picker
	mem     *documents.MemoryProvider
	tree    docref.Ref
	rec     *recorder
}

func newHarness() *harness {
	mem := documents.NewMemoryProvider("mem")
	rootID := mem.AddRoot("Exports")
	p := picker.New(picker.Config{Launcher: &picker.ManualLauncher{}, Grants: memGrants{}})
	rec := &recorder{}
	ch := NewExportChannel(Config{
		Picker:   p,
		Writer:   writer.New(writer.Config{Store: documents.NewContentResolver(nil, mem)}),
		Workers:  NewWorkers(2),
		Recorder: rec,
	})
	return &harness{channel: ch, picker: p, mem: mem, tree: docref.Tree("mem", rootID), rec: rec}
}

func call(t *testing.T, method string, args interface{}) types.MethodCall {
	t.Helper()
	c := types.MethodCall{Method: method}
	if args != nil {
		raw, err := json.Marshal(args)
		require.NoError(t, err)
		c.Arguments = raw
	}
	return c
}

func await(t *testing.T, r *ReplyResult) types.Reply {
	t.Helper()
	select {
	case reply := <-r.Done():
		return reply
	case <-time.After(2 * time.Second):
		t.Fatal("call was not answered")
		return types.Reply{}
	}
}

func TestWriteFileOverChannel(t *testing.T) {
	h := newHarness()
	payload := []byte("id,value\n1,42\n")

	res := NewReplyResult()
	h.channel.Handle(context.Background(), call(t, MethodWriteFile, map[string]interface{}{
		"treeUri":  h.tree.String(),
		"fileName": "out.csv",
		"mimeType": "text/csv",
		"bytes":    base64.StdEncoding.EncodeToString(payload),
		"subDir":   "Reports",
	}), res)

	reply := await(t, res)
	require.True(t, reply.Success, "%+v", reply.Error)

	created, err := docref.Parse(reply.Value.(string))
	require.NoError(t, err)
	content, ok := h.mem.Content(created.DocID)
	require.True(t, ok)
	assert.Equal(t, payload, content)
	assert.Equal(t, []string{"writeFile:success"}, h.rec.calls)
}

func TestWriteFileErrorCodes(t *testing.T) {
	h := newHarness()

	tests := []struct {
		name string
		args interface{}
		code string
	}{
		{
			name: "missing bytes",
			args: map[string]interface{}{"treeUri": h.tree.String(), "fileName": "a.txt", "mimeType": "text/plain"},
			code: types.CodeInvalidArgs,
		},
		{
			name: "no arguments",
			args: nil,
			code: types.CodeInvalidArgs,
		},
		{
			name: "malformed arguments",
			args: "not an object",
			code: types.CodeInvalidArgs,
		},
		{
			name: "unknown tree",
			args: map[string]interface{}{
				"treeUri": docref.Tree("elsewhere", "x").String(), "fileName": "a.txt", "mimeType": "text/plain", "bytes": "eA==",
			},
			code: types.CodeCreateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewReplyResult()
			h.channel.Handle(context.Background(), call(t, MethodWriteFile, tt.args), res)

			reply := await(t, res)
			assert.False(t, reply.Success)
			require.NotNil(t, reply.Error)
			assert.Equal(t, tt.code, reply.Error.Code)
		})
	}
	assert.Equal(t, 1, h.mem.Count())
}

func TestPickDirectoryOverChannel(t *testing.T) {
	h := newHarness()

	first := NewReplyResult()
	h.channel.Handle(context.Background(), call(t, MethodPickDirectory, nil), first)

	second := NewReplyResult()
	h.channel.Handle(context.Background(), call(t, MethodPickDirectory, nil), second)
	reply := await(t, second)
	require.NotNil(t, reply.Error)
	assert.Equal(t, types.CodePending, reply.Error.Code)

	req, ok := h.picker.Pending()
	require.True(t, ok)
	h.picker.OnResult(req.ID, picker.Confirmed(h.tree.String()))

	reply = await(t, first)
	assert.True(t, reply.Success)
	assert.Equal(t, h.tree.String(), reply.Value)
}

func TestUnknownMethod(t *testing.T) {
	h := newHarness()
	res := NewReplyResult()

	h.channel.Handle(context.Background(), call(t, "deleteFile", nil), res)

	reply := await(t, res)
	assert.True(t, reply.NotImplemented)
	assert.Equal(t, []string{"deleteFile:not_implemented"}, h.rec.calls)
}

func TestReplyResultKeepsFirstAnswer(t *testing.T) {
	res := NewReplyResult()
	res.Success("first")
	res.Error(types.CodeWriteFailed, "late", nil)
	res.NotImplemented()

	reply := await(t, res)
	assert.Equal(t, "first", reply.Value)
	select {
	case extra := <-res.Done():
		t.Fatalf("unexpected second reply %+v", extra)
	default:
	}
}

func TestDefinition(t *testing.T) {
	h := newHarness()
	def := h.channel.Definition()

	assert.Equal(t, DefaultChannelName, def.ID)
	require.Len(t, def.Methods, 2)
	assert.Equal(t, MethodPickDirectory, def.Methods[0].Name)
	assert.Equal(t, MethodWriteFile, def.Methods[1].Name)
}

func TestWorkersBoundParallelism(t *testing.T) {
	w := NewWorkers(2)
	var mu sync.Mutex
	running, peak := 0, 0

	for i := 0; i < 8; i++ {
		w.Go(func() {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	w.Wait()

	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, 0, running)
}
