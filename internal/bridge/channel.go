package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/types"
	"github.com/vitomein/loadintel/exportbridge/internal/writer"
)

// DefaultChannelName is the channel the mobile application calls.
const DefaultChannelName = "com.vitomein.loadintel/export"

// Channel methods
const (
	MethodPickDirectory = "pickDirectory"
	MethodWriteFile     = "writeFile"
)

// DirectoryPicker starts a directory pick answered through result.
type DirectoryPicker interface {
	Pick(ctx context.Context, result types.MethodResult)
}

// FileWriter writes a payload as a new document.
type FileWriter interface {
	WriteFile(ctx context.Context, req writer.Request) (string, error)
}

// Recorder receives per-call outcomes.
type Recorder interface {
	RecordChannelCall(method, outcome string, duration time.Duration)
}

// Config configures an ExportChannel
type Config struct {
	Name     string
	Picker   DirectoryPicker
	Writer   FileWriter
	Workers  *Workers
	Logger   *zap.Logger
	Recorder Recorder
}

// ExportChannel dispatches export method calls
type ExportChannel struct {
	name     string
	picker   DirectoryPicker
	writer   FileWriter
	workers  *Workers
	logger   *zap.Logger
	recorder Recorder
}

// NewExportChannel creates the export channel
func NewExportChannel(cfg Config) *ExportChannel {
	name := cfg.Name
	if name == "" {
		name = DefaultChannelName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers == nil {
		workers = NewWorkers(1)
	}
	return &ExportChannel{
		name:     name,
		picker:   cfg.Picker,
		writer:   cfg.Writer,
		workers:  workers,
		logger:   logger,
		recorder: cfg.Recorder,
	}
}

// Definition returns channel metadata
func (c *ExportChannel) Definition() types.Service {
	return types.Service{
		ID:          c.name,
		Name:        "Export Channel",
		Description: "Pick a directory tree and write files into granted trees",
		Category:    types.CategoryStorage,
		Capabilities: []string{
			"pick_directory",
			"persist_grant",
			"write_file",
			"create_subdirectory",
		},
		Methods: []types.Method{
			{
				Name:        MethodPickDirectory,
				Description: "Open the directory chooser and persist read/write access to the chosen tree",
				Parameters:  []types.Parameter{},
				Returns:     "string|null",
				Errors:      []string{types.CodePending, types.CodeUnavailable, types.CodeGrantFailed},
			},
			{
				Name:        MethodWriteFile,
				Description: "Create a new document in a granted tree and write bytes to it",
				Parameters: []types.Parameter{
					{Name: "treeUri", Type: "string", Description: "Granted tree reference", Required: true},
					{Name: "fileName", Type: "string", Description: "Display name of the new document", Required: true},
					{Name: "mimeType", Type: "string", Description: "MIME type of the new document", Required: true},
					{Name: "bytes", Type: "bytes", Description: "Payload, base64 in JSON", Required: true},
					{Name: "subDir", Type: "string", Description: "Subdirectory to resolve or create under the tree root", Required: false},
				},
				Returns: "string",
				Errors:  []string{types.CodeInvalidArgs, types.CodeCreateFailed, types.CodeWriteFailed},
			},
		},
	}
}

// Handle answers a method call through result
func (c *ExportChannel) Handle(ctx context.Context, call types.MethodCall, result types.MethodResult) {
	result = c.observe(call.Method, result)

	switch call.Method {
	case MethodPickDirectory:
		c.picker.Pick(ctx, result)
	case MethodWriteFile:
		c.handleWriteFile(ctx, call, result)
	default:
		c.logger.Debug("Method not implemented", zap.String("channel", c.name), zap.String("method", call.Method))
		result.NotImplemented()
	}
}

func (c *ExportChannel) handleWriteFile(ctx context.Context, call types.MethodCall, result types.MethodResult) {
	var req writer.Request
	if len(call.Arguments) > 0 {
		if err := sonic.Unmarshal(call.Arguments, &req); err != nil {
			result.Error(types.CodeInvalidArgs, "Malformed arguments: "+err.Error(), nil)
			return
		}
	}

	// Writes run to completion even if the caller goes away.
	workCtx := context.WithoutCancel(ctx)
	c.workers.Go(func() {
		uri, err := c.writer.WriteFile(workCtx, req)
		if err != nil {
			result.Error(errorCode(err), err.Error(), nil)
			return
		}
		result.Success(uri)
	})
}

// errorCode maps writer failures onto channel error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, writer.ErrInvalidArgs):
		return types.CodeInvalidArgs
	case errors.Is(err, writer.ErrCreateFailed):
		return types.CodeCreateFailed
	default:
		return types.CodeWriteFailed
	}
}

func (c *ExportChannel) observe(method string, result types.MethodResult) types.MethodResult {
	if c.recorder == nil {
		return result
	}
	return &observedResult{inner: result, method: method, start: time.Now(), recorder: c.recorder}
}

// observedResult records the outcome of a call as it is answered.
type observedResult struct {
	inner    types.MethodResult
	method   string
	start    time.Time
	recorder Recorder
}

func (r *observedResult) Success(value interface{}) {
	r.recorder.RecordChannelCall(r.method, "success", time.Since(r.start))
	r.inner.Success(value)
}

func (r *observedResult) Error(code, message string, details interface{}) {
	r.recorder.RecordChannelCall(r.method, code, time.Since(r.start))
	r.inner.Error(code, message, details)
}

func (r *observedResult) NotImplemented() {
	r.recorder.RecordChannelCall(r.method, "not_implemented", time.Since(r.start))
	r.inner.NotImplemented()
}
