package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/bridge"
	"github.com/vitomein/loadintel/exportbridge/internal/documents"
	"github.com/vitomein/loadintel/exportbridge/internal/grants"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/config"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/logging"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/monitoring"
	"github.com/vitomein/loadintel/exportbridge/internal/picker"
	"github.com/vitomein/loadintel/exportbridge/internal/service"
	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
	"github.com/vitomein/loadintel/exportbridge/internal/writer"
)

// Components is the wired export stack shared by the HTTP host and the CLI.
type Components struct {
	Config   *config.Config
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	Grants   *grants.Store
	Resolver *documents.ContentResolver
	Picker   *picker.Picker
	Writer   *writer.Writer
	Workers  *bridge.Workers
	Channel  *bridge.ExportChannel
	Registry *service.Registry

	// Local is set for the local backend, Memory for the memory backend.
	Local  *documents.LocalProvider
	Memory *documents.MemoryProvider

	// DefaultTree is the tree at the root of the configured volume.
	DefaultTree docref.Ref
}

// LauncherFactory picks a chooser once the document provider exists.
type LauncherFactory func(c *Components) (picker.Launcher, error)

// NewComponents builds the export stack. A nil factory selects the
// launcher named by cfg.Picker.Mode.
func NewComponents(cfg *config.Config, logger *logging.Logger, launchers LauncherFactory) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.FromConfig(cfg.Logging)
	}

	c := &Components{
		Config:  cfg,
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
	}

	store, err := grants.Open(cfg.Grants.Path, logger.Component("grants"))
	if err != nil {
		return nil, fmt.Errorf("failed to open grant table: %w", err)
	}
	c.Grants = store

	provider, err := c.newProvider()
	if err != nil {
		store.Close()
		return nil, err
	}
	c.Resolver = documents.NewContentResolver(store, provider)

	if launchers == nil {
		launchers = launcherForMode
	}
	launcher, err := launchers(c)
	if err != nil {
		store.Close()
		return nil, err
	}

	initialURI := ""
	if cfg.Picker.InitialDoc != "" {
		initialURI = docref.DocumentURI(cfg.Documents.Authority, cfg.Picker.InitialDoc)
	}
	c.Picker = picker.New(picker.Config{
		Launcher:   launcher,
		Grants:     store,
		InitialURI: initialURI,
		Logger:     logger.Component("picker"),
		Observer:   c.Metrics.ObservePickerOutcome,
	})
	c.Writer = writer.New(writer.Config{
		Store:           c.Resolver,
		Logger:          logger.Component("writer"),
		MaxPayloadBytes: cfg.Writer.MaxPayloadBytes,
		Observer:        c.Metrics,
	})
	c.Workers = bridge.NewWorkers(cfg.Writer.Workers)
	c.Channel = bridge.NewExportChannel(bridge.Config{
		Name:     cfg.Channel.Name,
		Picker:   c.Picker,
		Writer:   c.Writer,
		Workers:  c.Workers,
		Logger:   logger.Component("channel"),
		Recorder: c.Metrics,
	})

	c.Registry = service.NewRegistry()
	if err := c.Registry.Register(c.Channel); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register channel: %w", err)
	}

	logger.Info("Export stack initialized",
		zap.String("channel", cfg.Channel.Name),
		zap.String("backend", cfg.Documents.Backend),
		zap.String("picker_mode", cfg.Picker.Mode),
		zap.String("default_tree", c.DefaultTree.String()),
	)
	return c, nil
}

func (c *Components) newProvider() (documents.Provider, error) {
	docs := c.Config.Documents
	switch docs.Backend {
	case "memory":
		mem := documents.NewMemoryProvider(docs.Authority)
		rootID := mem.AddRoot(docs.VolumeLabel)
		c.Memory = mem
		c.DefaultTree = docref.Tree(docs.Authority, rootID)
		return mem, nil
	default:
		local, err := documents.NewLocalProvider(docs.Authority, []documents.Volume{
			{ID: docs.VolumeID, Path: docs.VolumePath, Label: docs.VolumeLabel},
		}, c.Logger.Component("documents"))
		if err != nil {
			return nil, err
		}
		c.Local = local
		c.DefaultTree = docref.Tree(docs.Authority, documents.DocumentID(docs.VolumeID, ""))
		return local, nil
	}
}

func launcherForMode(c *Components) (picker.Launcher, error) {
	switch c.Config.Picker.Mode {
	case "static":
		tree := c.Config.Picker.StaticTree
		if tree == "" {
			tree = c.DefaultTree.String()
		}
		ref, err := docref.Parse(tree)
		if err != nil || !ref.IsTree() {
			return nil, fmt.Errorf("invalid static picker tree %q", tree)
		}
		return &picker.StaticLauncher{TreeURI: ref.String()}, nil
	default:
		return &picker.ManualLauncher{Logger: c.Logger.Component("picker")}, nil
	}
}

// PromptLaunchers selects the terminal chooser. It needs the local backend.
func PromptLaunchers(c *Components) (picker.Launcher, error) {
	if c.Local == nil {
		return nil, fmt.Errorf("terminal picker requires the local documents backend")
	}
	return picker.NewPromptLauncher(c.Local), nil
}

// Close waits for in-flight writes and closes the grant table.
func (c *Components) Close() error {
	c.Workers.Wait()
	if err := c.Grants.Close(); err != nil {
		return fmt.Errorf("failed to close grant table: %w", err)
	}
	return nil
}
