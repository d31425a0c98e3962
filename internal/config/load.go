package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// envFiles are loaded in order; variables already set in the process win.
var envFiles = []string{".env", ".env.local"}

// Load reads the configuration file at path. An empty path yields the defaults.
// Environment files are loaded first so ${VAR} references in the YAML resolve.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, foundationerrors.ConfigError("configuration file not found").
					WithContext("path", path).
					Build()
			}
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
				Fatal().
				WithContext("path", path).
				Build()
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse config file").
				Fatal().
				WithContext("path", path).
				Build()
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", name))
	}
}

// applyEnvOverrides lets well-known environment variables fill credentials and
// override a few operational settings without touching the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPODOC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = NormalizeLogLevel(v)
	}
	if v := os.Getenv("REPODOC_PROVIDER"); v != "" {
		cfg.Generation.Provider = ProviderKind(v)
	}
	if v := os.Getenv("REPODOC_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if cfg.Generation.APIKey == "" {
		switch cfg.Generation.Provider {
		case ProviderOpenAI:
			cfg.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
		case ProviderGemini:
			cfg.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if cfg.Acquire.Token == "" {
		cfg.Acquire.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Store.S3.AccessKey == "" {
		cfg.Store.S3.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if cfg.Store.S3.SecretKey == "" {
		cfg.Store.S3.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
}

// GenerationTimeout returns the per-call timeout.
func (p PipelineConfig) GenerationTimeout() time.Duration {
	return time.Duration(p.GenerationTimeoutMS) * time.Millisecond
}

// RetryDelays returns the parsed initial and maximum retry delays.
// Values are validated by Validate, so parse failures fall back to zero.
func (p PipelineConfig) RetryDelays() (initial, maxDelay time.Duration) {
	initial, _ = time.ParseDuration(p.RetryInitialDelay)
	maxDelay, _ = time.ParseDuration(p.RetryMaxDelay)
	return initial, maxDelay
}

// ScheduleInterval returns the parsed schedule interval.
func (s ScheduleConfig) ScheduleInterval() (time.Duration, error) {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule.interval: %w", err)
	}
	return d, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundationerrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	example := Default()
	example.Generation.APIKey = "${OPENAI_API_KEY}"
	example.Store.S3.Endpoint = "localhost:9000"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// #nosec G306 -- example configuration is not sensitive
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
