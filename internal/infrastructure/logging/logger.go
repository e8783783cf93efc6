package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/config"
)

// Logger is the bridge's root logger. Subsystems log through Component.
type Logger struct {
	*zap.Logger
}

// Component returns a named child logger for one subsystem.
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}

// New builds a logger from the logging section of the bridge config.
//
// Production mode writes JSON; development mode writes console text with
// stack traces on warnings. An empty level means info in production and
// debug in development. A non-empty File replaces stderr as the sink.
func New(cfg config.LogConfig) (*Logger, error) {
	level, err := levelFor(cfg)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level
	zapCfg.Sampling = nil
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development && cfg.File == "" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: logger}, nil
}

// FromConfig is New for startup paths that cannot fail. A rejected level or
// an unopenable file falls back to the mode's default level on stderr, and
// the rejection is logged once through the fallback.
func FromConfig(cfg config.LogConfig) *Logger {
	logger, err := New(cfg)
	if err == nil {
		return logger
	}

	logger, fallbackErr := New(config.LogConfig{Development: cfg.Development})
	if fallbackErr != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	logger.Warn("Logging config rejected, using defaults",
		zap.String("level", cfg.Level),
		zap.String("file", cfg.File),
		zap.Error(err),
	)
	return logger
}

func levelFor(cfg config.LogConfig) (zap.AtomicLevel, error) {
	name := cfg.Level
	if name == "" {
		name = "info"
		if cfg.Development {
			name = "debug"
		}
	}
	level, err := zap.ParseAtomicLevel(name)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}
