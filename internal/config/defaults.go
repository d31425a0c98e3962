package config

// Default returns a configuration with every field at its documented default.
// Load unmarshals the user's file on top of this value so omitted keys keep
// their defaults while explicit zeroes survive.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			MaxGenerationRetries: 2,
			GenerationTimeoutMS:  60000,
			SectionConcurrency:   4,
			QualityPassThreshold: 70,
			MaxFileSizeBytes:     1 << 20,
			RetryBackoff:         RetryBackoffExponential,
			RetryInitialDelay:    "1s",
			RetryMaxDelay:        "30s",
			GenerateTests:        true,
		},
		Acquire: AcquireConfig{
			Depth: 1,
		},
		Generation: GenerationConfig{
			Provider:          ProviderOpenAI,
			Model:             "gpt-4o-mini",
			MaxTokens:         1200,
			Temperature:       0.3,
			RequestsPerSecond: 2,
			CacheSize:         128,
		},
		Review: ReviewConfig{
			ApprovedThreshold:  85,
			MinSectionWords:    40,
			MinSentenceWords:   6,
			MaxSentenceWords:   28,
			MaxBulletRatio:     0.6,
			PlaceholderPenalty: 10,
			HighShortfall:      30,
			MediumShortfall:    15,
		},
		Output: OutputConfig{
			Directory: "./repodoc-out",
		},
		Store: StoreConfig{
			Backend: StoreFS,
			NATS: NATSConfig{
				URL:     "nats://127.0.0.1:4222",
				Bucket:  "repodoc_artifacts",
				Subject: "repodoc.runs",
			},
			S3: S3Config{
				Bucket: "repodoc",
				UseSSL: true,
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".repodoc/history.db",
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "repodoc",
		},
		Schedule: ScheduleConfig{
			Interval: "24h",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}
