package picker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/documents"
	"github.com/vitomein/loadintel/exportbridge/internal/grants"
	"github.com/vitomein/loadintel/exportbridge/internal/types"
)

// RequestCode tags picker requests for platform result routing.
const RequestCode = 5010

// Flags are the grant flags carried by requests and outcomes.
type Flags uint8

const (
	FlagGrantRead Flags = 1 << iota
	FlagGrantWrite
	FlagGrantPersistable
	FlagGrantPrefix
)

// RequestFlags is what every pick asks the chooser for.
const RequestFlags = FlagGrantRead | FlagGrantWrite | FlagGrantPersistable | FlagGrantPrefix

// Access returns the persistable part of the flags.
func (f Flags) Access() documents.Access {
	var access documents.Access
	if f&FlagGrantRead != 0 {
		access |= documents.AccessRead
	}
	if f&FlagGrantWrite != 0 {
		access |= documents.AccessWrite
	}
	return access
}

// Request is the in-flight pick
type Request struct {
	ID         string    `json:"id"`
	Code       int       `json:"code"`
	InitialURI string    `json:"initial_uri,omitempty"`
	Flags      Flags     `json:"flags"`
	CreatedAt  time.Time `json:"created_at"`
}

// Status is how the chooser finished
type Status int

const (
	StatusOK Status = iota
	StatusCanceled
)

// Outcome is the chooser's answer to a Request
type Outcome struct {
	Status  Status
	TreeURI string
	Flags   Flags
}

// Canceled is the outcome of a dismissed chooser.
func Canceled() Outcome {
	return Outcome{Status: StatusCanceled}
}

// Confirmed is the outcome of a chosen tree with full access.
func Confirmed(treeURI string) Outcome {
	return Outcome{Status: StatusOK, TreeURI: treeURI, Flags: FlagGrantRead | FlagGrantWrite | FlagGrantPersistable}
}

// ResultSink accepts chooser outcomes. It reports false when the outcome
// does not belong to the pending request.
type ResultSink interface {
	OnResult(requestID string, outcome Outcome) bool
}

// Launcher opens the native directory chooser.
type Launcher interface {
	// SupportsInitialURI reports whether the chooser honours a start location.
	SupportsInitialURI() bool

	// Launch starts the chooser. The outcome is delivered to sink, possibly
	// before Launch returns.
	Launch(ctx context.Context, req Request, sink ResultSink) error
}

// GrantTaker persists access to a chosen tree.
type GrantTaker interface {
	Take(uri string, access documents.Access) (grants.Grant, error)
}

// Observer is notified of terminal picker outcomes.
type Observer func(outcome string)

// Config configures a Picker
type Config struct {
	Launcher   Launcher
	Grants     GrantTaker
	InitialURI string
	Logger     *zap.Logger
	Observer   Observer
}

// Picker coordinates directory picks
type Picker struct {
	launcher   Launcher
	grants     GrantTaker
	initialURI string
	logger     *zap.Logger
	observe    Observer

	mu      sync.Mutex
	pending *pendingPick
}

type pendingPick struct {
	request Request
	result  types.MethodResult
}

// New creates a picker
func New(cfg Config) *Picker {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observe := cfg.Observer
	if observe == nil {
		observe = func(string) {}
	}
	return &Picker{
		launcher:   cfg.Launcher,
		grants:     cfg.Grants,
		initialURI: cfg.InitialURI,
		logger:     logger,
		observe:    observe,
	}
}

// Pick starts a directory pick. result is answered exactly once: with the
// granted tree URI, with nil on cancel, or with an error.
func (p *Picker) Pick(ctx context.Context, result types.MethodResult) {
	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		p.observe("pending")
		result.Error(types.CodePending, "Directory picker already active", nil)
		return
	}

	req := Request{
		ID:        uuid.NewString(),
		Code:      RequestCode,
		Flags:     RequestFlags,
		CreatedAt: time.Now().UTC(),
	}
	if p.initialURI != "" && p.launcher.SupportsInitialURI() {
		req.InitialURI = p.initialURI
	}
	p.pending = &pendingPick{request: req, result: result}
	p.mu.Unlock()

	p.logger.Info("Directory picker launched",
		zap.String("request_id", req.ID),
		zap.String("initial_uri", req.InitialURI),
	)

	if err := p.launcher.Launch(ctx, req, p); err != nil {
		if pick := p.take(req.ID); pick != nil {
			p.logger.Warn("Directory picker failed to launch", zap.String("request_id", req.ID), zap.Error(err))
			p.observe("unavailable")
			pick.result.Error(types.CodeUnavailable, fmt.Sprintf("Unable to open directory picker: %v", err), nil)
		}
	}
}

// OnResult delivers a chooser outcome. Outcomes for anything but the
// pending request are ignored and reported as unhandled.
func (p *Picker) OnResult(requestID string, outcome Outcome) bool {
	pick := p.take(requestID)
	if pick == nil {
		p.logger.Debug("Ignoring picker result with no matching request", zap.String("request_id", requestID))
		return false
	}

	if outcome.Status != StatusOK || outcome.TreeURI == "" {
		p.logger.Info("Directory picker canceled", zap.String("request_id", requestID))
		p.observe("canceled")
		pick.result.Success(nil)
		return true
	}

	if _, err := p.grants.Take(outcome.TreeURI, outcome.Flags.Access()); err != nil {
		p.logger.Error("Failed to persist directory grant",
			zap.String("request_id", requestID),
			zap.String("tree_uri", outcome.TreeURI),
			zap.Error(err),
		)
		p.observe("grant_failed")
		pick.result.Error(types.CodeGrantFailed, err.Error(), nil)
		return true
	}

	p.logger.Info("Directory picked",
		zap.String("request_id", requestID),
		zap.String("tree_uri", outcome.TreeURI),
	)
	p.observe("picked")
	pick.result.Success(outcome.TreeURI)
	return true
}

// Pending returns the in-flight request, if any.
func (p *Picker) Pending() (Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return Request{}, false
	}
	return p.pending.request, true
}

// take clears the slot if it holds requestID.
func (p *Picker) take(requestID string) *pendingPick {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil || p.pending.request.ID != requestID {
		return nil
	}
	pick := p.pending
	p.pending = nil
	return pick
}
