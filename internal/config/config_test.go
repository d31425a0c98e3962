package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repodoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Pipeline.MaxGenerationRetries)
	require.Equal(t, 60000, cfg.Pipeline.GenerationTimeoutMS)
	require.Equal(t, 4, cfg.Pipeline.SectionConcurrency)
	require.Equal(t, 70, cfg.Pipeline.QualityPassThreshold)
	require.Equal(t, int64(1<<20), cfg.Pipeline.MaxFileSizeBytes)
	require.Equal(t, time.Minute, cfg.Pipeline.GenerationTimeout())
}

func TestLoad_OverridesAndExplicitZero(t *testing.T) {
	t.Setenv("REPODOC_TEST_MODEL", "gpt-test")
	path := writeConfig(t, `
pipeline:
  max_generation_retries: 0
  section_concurrency: 2
  retry_backoff: LINEAR
generation:
  provider: fake
  model: ${REPODOC_TEST_MODEL}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Pipeline.MaxGenerationRetries)
	require.Equal(t, 2, cfg.Pipeline.SectionConcurrency)
	require.Equal(t, RetryBackoffLinear, cfg.Pipeline.RetryBackoff)
	require.Equal(t, ProviderFake, cfg.Generation.Provider)
	require.Equal(t, "gpt-test", cfg.Generation.Model)
	require.Equal(t, 70, cfg.Pipeline.QualityPassThreshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative retries", func(c *Config) { c.Pipeline.MaxGenerationRetries = -1 }, "pipeline.max_generation_retries"},
		{"zero concurrency", func(c *Config) { c.Pipeline.SectionConcurrency = 0 }, "pipeline.section_concurrency"},
		{"threshold range", func(c *Config) { c.Pipeline.QualityPassThreshold = 101 }, "pipeline.quality_pass_threshold"},
		{"bad backoff", func(c *Config) { c.Pipeline.RetryBackoff = "random" }, "pipeline.retry_backoff"},
		{"bad delay", func(c *Config) { c.Pipeline.RetryInitialDelay = "soon" }, "pipeline.retry_initial_delay"},
		{"unknown provider", func(c *Config) { c.Generation.Provider = "llama" }, "generation.provider"},
		{"missing model", func(c *Config) { c.Generation.Model = "" }, "generation.model"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "ftp" }, "store.backend"},
		{"s3 endpoint", func(c *Config) { c.Store.Backend = StoreS3 }, "store.s3"},
		{"approved below pass", func(c *Config) { c.Review.ApprovedThreshold = 50 }, "review.approved_threshold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			classified, ok := foundationerrors.AsClassified(err)
			require.True(t, ok)
			field, _ := classified.Context().GetString("field")
			require.Equal(t, tc.field, field)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPODOC_LOG_LEVEL", "DEBUG")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, LogLevelDebug, cfg.Logging.Level)
	require.Equal(t, "sk-test", cfg.Generation.APIKey)
}

func TestInit_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repodoc.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", cfg.Generation.APIKey)
}

func TestRetryDelays(t *testing.T) {
	initial, maxDelay := Default().Pipeline.RetryDelays()
	require.Equal(t, time.Second, initial)
	require.Equal(t, 30*time.Second, maxDelay)

	d, err := Default().Schedule.ScheduleInterval()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, d)
}
