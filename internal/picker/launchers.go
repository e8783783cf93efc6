package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
)

// ManualLauncher leaves the request pending until some other party calls
// Picker.OnResult.
type ManualLauncher struct {
	Logger *zap.Logger
}

// SupportsInitialURI implements Launcher
func (l *ManualLauncher) SupportsInitialURI() bool { return true }

// Launch implements Launcher
func (l *ManualLauncher) Launch(ctx context.Context, req Request, sink ResultSink) error {
	if l.Logger != nil {
		l.Logger.Info("Waiting for directory chooser", zap.String("request_id", req.ID))
	}
	return nil
}

// StaticLauncher answers every request with the same outcome from a
// separate goroutine, the way a platform callback arrives.
type StaticLauncher struct {
	TreeURI string // empty cancels
}

// SupportsInitialURI implements Launcher
func (l *StaticLauncher) SupportsInitialURI() bool { return false }

// Launch implements Launcher
func (l *StaticLauncher) Launch(ctx context.Context, req Request, sink ResultSink) error {
	outcome := Canceled()
	if l.TreeURI != "" {
		outcome = Confirmed(l.TreeURI)
	}
	go sink.OnResult(req.ID, outcome)
	return nil
}

// Locator maps between filesystem paths and document IDs.
type Locator interface {
	Authority() string
	Path(docID string) (string, error)
	DocumentIDForPath(path string) (string, error)
}

// AskFunc prompts for a directory path given a default.
type AskFunc func(message, defaultPath string) (string, error)

// PromptLauncher asks for a directory on the terminal.
type PromptLauncher struct {
	Locator Locator
	Ask     AskFunc
}

// NewPromptLauncher creates a terminal chooser backed by survey.
func NewPromptLauncher(locator Locator) *PromptLauncher {
	return &PromptLauncher{Locator: locator, Ask: surveyAsk}
}

// SupportsInitialURI implements Launcher
func (l *PromptLauncher) SupportsInitialURI() bool { return true }

// Launch implements Launcher. The prompt blocks; the outcome is delivered
// before Launch returns.
func (l *PromptLauncher) Launch(ctx context.Context, req Request, sink ResultSink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	defaultPath := ""
	if req.InitialURI != "" {
		if _, docID, err := docref.ParseDocumentURI(req.InitialURI); err == nil {
			defaultPath, _ = l.Locator.Path(docID)
		}
	}

	answer, err := l.Ask("Directory to grant:", defaultPath)
	if err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			sink.OnResult(req.ID, Canceled())
			return nil
		}
		return err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		sink.OnResult(req.ID, Canceled())
		return nil
	}

	docID, err := l.Locator.DocumentIDForPath(answer)
	if err != nil {
		return fmt.Errorf("cannot grant %s: %w", answer, err)
	}
	sink.OnResult(req.ID, Confirmed(docref.Tree(l.Locator.Authority(), docID).String()))
	return nil
}

func surveyAsk(message, defaultPath string) (string, error) {
	var answer string
	prompt := &survey.Input{
		Message: message,
		Default: defaultPath,
		Help:    "Leave empty to cancel",
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}
