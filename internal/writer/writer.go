package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
)

var (
	// ErrInvalidArgs marks requests missing a mandatory field.
	ErrInvalidArgs = errors.New("invalid arguments")
	// ErrCreateFailed marks writes whose document could not be created.
	ErrCreateFailed = errors.New("create failed")
	// ErrWriteFailed marks writes whose payload could not be stored.
	ErrWriteFailed = errors.New("write failed")
)

// Error is a failed write. Kind is one of the sentinel errors above.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Request is a single write. It is never persisted.
type Request struct {
	TreeURI  string `json:"treeUri" validate:"required"`
	FileName string `json:"fileName" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
	Bytes    []byte `json:"bytes" validate:"required"`
	SubDir   string `json:"subDir,omitempty"`
}

// DocumentStore is the document subsystem a Writer writes through.
type DocumentStore interface {
	Resolver
	OpenWriter(ctx context.Context, ref docref.Ref) (io.WriteCloser, error)
}

// Observer receives write statistics.
type Observer interface {
	ObserveResolution(r Resolution)
	ObserveBytesWritten(n int)
}

// Config configures a Writer
type Config struct {
	Store           DocumentStore
	Logger          *zap.Logger
	MaxPayloadBytes int64 // 0 means unlimited
	Observer        Observer
}

// Writer creates documents in granted trees
type Writer struct {
	store      DocumentStore
	logger     *zap.Logger
	maxPayload int64
	observer   Observer
	validate   *validator.Validate
}

// New creates a writer
func New(cfg Config) *Writer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Writer{
		store:      cfg.Store,
		logger:     logger,
		maxPayload: cfg.MaxPayloadBytes,
		observer:   observer,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WriteFile stores req.Bytes as a new document and returns its handle.
// A document that was created but could not be fully written is left in
// place.
func (w *Writer) WriteFile(ctx context.Context, req Request) (string, error) {
	if err := w.validateRequest(req); err != nil {
		return "", err
	}

	ref, err := docref.Parse(req.TreeURI)
	if err != nil {
		return "", &Error{Kind: ErrCreateFailed, Message: "Unable to create file", Err: err}
	}
	tree := docref.Tree(ref.Authority, ref.TreeDocID)

	target, resolution := ResolveTarget(ctx, w.store, tree, req.SubDir, w.logger)
	w.observer.ObserveResolution(resolution)

	created, err := w.store.CreateDocument(ctx, target, req.MimeType, req.FileName)
	if err != nil {
		w.logger.Warn("Document creation failed",
			zap.String("target", target.String()),
			zap.String("file_name", req.FileName),
			zap.Error(err),
		)
		return "", &Error{Kind: ErrCreateFailed, Message: "Unable to create file", Err: err}
	}

	out, err := w.store.OpenWriter(ctx, created)
	if err != nil {
		return "", &Error{Kind: ErrWriteFailed, Message: "Unable to open output stream", Err: err}
	}
	if err := writeAll(out, req.Bytes); err != nil {
		w.logger.Warn("Document write failed, leaving partial document",
			zap.String("document", created.String()),
			zap.Error(err),
		)
		return "", &Error{Kind: ErrWriteFailed, Message: "Unable to write file", Err: err}
	}
	w.observer.ObserveBytesWritten(len(req.Bytes))

	w.logger.Info("File written",
		zap.String("document", created.String()),
		zap.String("resolution", string(resolution)),
		zap.String("mime_type", req.MimeType),
		zap.Int("bytes", len(req.Bytes)),
	)
	return created.String(), nil
}

func (w *Writer) validateRequest(req Request) error {
	if err := w.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return &Error{Kind: ErrInvalidArgs, Message: "Missing arguments: " + strings.Join(missing, ", ")}
		}
		return &Error{Kind: ErrInvalidArgs, Message: "Missing arguments", Err: err}
	}
	if w.maxPayload > 0 && int64(len(req.Bytes)) > w.maxPayload {
		return &Error{
			Kind:    ErrInvalidArgs,
			Message: fmt.Sprintf("Payload of %d bytes exceeds limit of %d", len(req.Bytes), w.maxPayload),
		}
	}
	return nil
}

// writeAll writes data and always closes out.
func writeAll(out io.WriteCloser, data []byte) (err error) {
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = out.Write(data)
	return err
}

type nopObserver struct{}

func (nopObserver) ObserveResolution(Resolution) {}
func (nopObserver) ObserveBytesWritten(int)      {}
