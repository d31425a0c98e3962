package config

// Config is the repodoc configuration file layout.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Acquire    AcquireConfig    `yaml:"acquire"`
	Generation GenerationConfig `yaml:"generation"`
	Review     ReviewConfig     `yaml:"review"`
	Output     OutputConfig     `yaml:"output"`
	Store      StoreConfig      `yaml:"store"`
	History    HistoryConfig    `yaml:"history"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PipelineConfig holds the run-level knobs of the documentation pipeline.
type PipelineConfig struct {
	MaxGenerationRetries int              `yaml:"max_generation_retries"`
	GenerationTimeoutMS  int              `yaml:"generation_timeout_ms"`
	SectionConcurrency   int              `yaml:"section_concurrency"`
	QualityPassThreshold int              `yaml:"quality_pass_threshold"`
	MaxFileSizeBytes     int64            `yaml:"max_file_size_bytes"`
	RetryBackoff         RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay    string           `yaml:"retry_initial_delay"`
	RetryMaxDelay        string           `yaml:"retry_max_delay"`
	GenerateTests        bool             `yaml:"generate_tests"`
}

// AcquireConfig controls how remote repositories are fetched.
type AcquireConfig struct {
	Branch       string `yaml:"branch,omitempty"`
	Depth        int    `yaml:"depth"`
	Token        string `yaml:"token,omitempty"`
	WorkspaceDir string `yaml:"workspace_dir,omitempty"`
}

// GenerationConfig selects and tunes the text-generation provider.
type GenerationConfig struct {
	Provider          ProviderKind `yaml:"provider"`
	Model             string       `yaml:"model"`
	APIKey            string       `yaml:"api_key,omitempty"`
	BaseURL           string       `yaml:"base_url,omitempty"`
	MaxTokens         int          `yaml:"max_tokens"`
	Temperature       float64      `yaml:"temperature"`
	RequestsPerSecond float64      `yaml:"requests_per_second"`
	CacheSize         int          `yaml:"cache_size"`
}

// ReviewConfig exposes the quality scoring policy.
type ReviewConfig struct {
	ApprovedThreshold  int     `yaml:"approved_threshold"`
	MinSectionWords    int     `yaml:"min_section_words"`
	MinSentenceWords   float64 `yaml:"min_sentence_words"`
	MaxSentenceWords   float64 `yaml:"max_sentence_words"`
	MaxBulletRatio     float64 `yaml:"max_bullet_ratio"`
	PlaceholderPenalty int     `yaml:"placeholder_penalty"`
	HighShortfall      int     `yaml:"high_shortfall"`
	MediumShortfall    int     `yaml:"medium_shortfall"`
}

// OutputConfig controls the rendered artifacts.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	HTML      bool   `yaml:"html"`
}

// StoreConfig selects where artifacts and regeneration blocks are persisted.
type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
	NATS    NATSConfig   `yaml:"nats,omitempty"`
	S3      S3Config     `yaml:"s3,omitempty"`
}

// NATSConfig configures the JetStream key-value backend.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Bucket  string `yaml:"bucket"`
	Subject string `yaml:"subject"`
}

// S3Config configures the S3-compatible object backend.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// HistoryConfig configures the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// ScheduleConfig configures periodic regeneration.
type ScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}
