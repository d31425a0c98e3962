package config

import (
	"time"

	foundationerrors "git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// Validate normalizes enum fields in place and checks ranges.
func (c *Config) Validate() error {
	checks := []func(*Config) error{
		validatePipeline,
		validateGeneration,
		validateReview,
		validateStore,
		validateLogging,
	}
	for _, check := range checks {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, message string, value any) error {
	return foundationerrors.ConfigError(message).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

func validatePipeline(c *Config) error {
	p := &c.Pipeline
	if p.MaxGenerationRetries < 0 {
		return invalid("pipeline.max_generation_retries", "must not be negative", p.MaxGenerationRetries)
	}
	if p.GenerationTimeoutMS <= 0 {
		return invalid("pipeline.generation_timeout_ms", "must be positive", p.GenerationTimeoutMS)
	}
	if p.SectionConcurrency < 1 {
		return invalid("pipeline.section_concurrency", "must be at least 1", p.SectionConcurrency)
	}
	if p.QualityPassThreshold < 0 || p.QualityPassThreshold > 100 {
		return invalid("pipeline.quality_pass_threshold", "must be within 0..100", p.QualityPassThreshold)
	}
	if p.MaxFileSizeBytes <= 0 {
		return invalid("pipeline.max_file_size_bytes", "must be positive", p.MaxFileSizeBytes)
	}
	mode, err := retryBackoffEnum.parse(string(p.RetryBackoff))
	if err != nil {
		return invalid("pipeline.retry_backoff", err.Error(), p.RetryBackoff)
	}
	p.RetryBackoff = mode
	initial, err := time.ParseDuration(p.RetryInitialDelay)
	if err != nil || initial <= 0 {
		return invalid("pipeline.retry_initial_delay", "must be a positive duration", p.RetryInitialDelay)
	}
	maxDelay, err := time.ParseDuration(p.RetryMaxDelay)
	if err != nil || maxDelay <= 0 {
		return invalid("pipeline.retry_max_delay", "must be a positive duration", p.RetryMaxDelay)
	}
	if maxDelay < initial {
		return invalid("pipeline.retry_max_delay", "must not be smaller than retry_initial_delay", p.RetryMaxDelay)
	}
	return nil
}

func validateGeneration(c *Config) error {
	g := &c.Generation
	kind, err := providerEnum.parse(string(g.Provider))
	if err != nil {
		return invalid("generation.provider", err.Error(), g.Provider)
	}
	g.Provider = kind
	if g.Provider != ProviderFake && g.Model == "" {
		return invalid("generation.model", "model is required", g.Model)
	}
	if g.MaxTokens <= 0 {
		return invalid("generation.max_tokens", "must be positive", g.MaxTokens)
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		return invalid("generation.temperature", "must be within 0..2", g.Temperature)
	}
	if g.RequestsPerSecond < 0 {
		return invalid("generation.requests_per_second", "must not be negative", g.RequestsPerSecond)
	}
	if g.CacheSize < 0 {
		return invalid("generation.cache_size", "must not be negative", g.CacheSize)
	}
	return nil
}

func validateReview(c *Config) error {
	r := c.Review
	if r.ApprovedThreshold < c.Pipeline.QualityPassThreshold || r.ApprovedThreshold > 100 {
		return invalid("review.approved_threshold", "must be within quality_pass_threshold..100", r.ApprovedThreshold)
	}
	if r.MinSectionWords < 1 {
		return invalid("review.min_section_words", "must be at least 1", r.MinSectionWords)
	}
	if r.MinSentenceWords <= 0 || r.MaxSentenceWords < r.MinSentenceWords {
		return invalid("review.max_sentence_words", "sentence bounds must satisfy 0 < min <= max", r.MaxSentenceWords)
	}
	if r.MaxBulletRatio <= 0 || r.MaxBulletRatio > 1 {
		return invalid("review.max_bullet_ratio", "must be within (0,1]", r.MaxBulletRatio)
	}
	if r.MediumShortfall < 0 || r.HighShortfall < r.MediumShortfall {
		return invalid("review.high_shortfall", "must be >= medium_shortfall >= 0", r.HighShortfall)
	}
	return nil
}

func validateStore(c *Config) error {
	s := &c.Store
	backend, err := storeEnum.parse(string(s.Backend))
	if err != nil {
		return invalid("store.backend", err.Error(), s.Backend)
	}
	s.Backend = backend
	switch backend {
	case StoreFS:
		if c.Output.Directory == "" {
			return invalid("output.directory", "directory is required for the fs backend", c.Output.Directory)
		}
	case StoreNATS:
		if s.NATS.URL == "" || s.NATS.Bucket == "" {
			return invalid("store.nats", "url and bucket are required", s.NATS.URL)
		}
	case StoreS3:
		if s.S3.Endpoint == "" || s.S3.Bucket == "" {
			return invalid("store.s3", "endpoint and bucket are required", s.S3.Endpoint)
		}
	}
	return nil
}

func validateLogging(c *Config) error {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	return nil
}
