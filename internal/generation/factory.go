package generation

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// New builds the configured provider wrapped with logging, rate limiting and caching.
func New(ctx context.Context, cfg config.GenerationConfig, logger *slog.Logger) (Service, error) {
	var base Service
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to configure openai provider").Fatal().Build()
		}
		base = c
	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to configure gemini provider").Fatal().Build()
		}
		base = c
	case config.ProviderFake:
		base = NewScripted()
	default:
		return nil, errors.ConfigError("unknown generation provider").WithContext("provider", string(cfg.Provider)).Build()
	}

	cache, err := WithCache(cfg.CacheSize)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to create completion cache").Fatal().Build()
	}
	return Wrap(base,
		WithLogging(logger, string(cfg.Provider), cfg.Model),
		cache,
		WithRateLimit(cfg.RequestsPerSecond, 1),
	), nil
}
