package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quant.analytics/config"
)

// AnalysisContext carries what the analytics need besides their inputs
type AnalysisContext struct {
	Context  context.Context
	Logger   *zap.Logger
	Settings config.Settings
}

// NewAnalysisContext returns a context with default settings and a no-op logger
func NewAnalysisContext(ctx context.Context) *AnalysisContext {
	return &AnalysisContext{
		Context:  ctx,
		Logger:   zap.NewNop(),
		Settings: config.Default(),
	}
}

// LoadAnalysisContext reads the settings from the environment (and the optional env files)
// and builds the logger at the configured level
func LoadAnalysisContext(ctx context.Context, envFiles ...string) (*AnalysisContext, error) {
	settings, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("error loading settings: %w", err)
	}

	logger, err := NewLogger(settings.LogLevel)
	if err != nil {
		return nil, err
	}

	return &AnalysisContext{
		Context:  ctx,
		Logger:   logger,
		Settings: settings,
	}, nil
}

func (ac *AnalysisContext) ctx() context.Context {
	if ac.Context == nil {
		return context.Background()
	}
	return ac.Context
}

func (ac *AnalysisContext) log() *zap.Logger {
	if ac.Logger == nil {
		return zap.NewNop()
	}
	return ac.Logger
}

// settings falls back to the defaults when the caller left them all unset.
// Partially filled settings are validated as given, zero fields are not replaced.
func (ac *AnalysisContext) settings() (config.Settings, error) {
	if ac.Settings == (config.Settings{}) {
		return config.Default(), nil
	}
	if err := ac.Settings.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return ac.Settings, nil
}
