package config

import (
	"fmt"
	"sort"
	"strings"
)

// enum maps case-insensitive user input onto a typed value.
type enum[T ~string] struct {
	name   string
	values map[string]T
}

func newEnum[T ~string](name string, values ...T) enum[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[string(v)] = v
	}
	return enum[T]{name: name, values: m}
}

func (e enum[T]) normalize(raw string) (T, bool) {
	v, ok := e.values[strings.ToLower(strings.TrimSpace(raw))]
	return v, ok
}

func (e enum[T]) parse(raw string) (T, error) {
	if v, ok := e.normalize(raw); ok {
		return v, nil
	}
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", e.name, raw, keys)
}

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffEnum = newEnum("retry_backoff", RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential)

// NormalizeRetryBackoff converts user input into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	v, _ := retryBackoffEnum.normalize(raw)
	return v
}

// ProviderKind names a generation service implementation.
type ProviderKind string

const (
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
	ProviderFake   ProviderKind = "fake"
)

var providerEnum = newEnum("generation.provider", ProviderOpenAI, ProviderGemini, ProviderFake)

// StoreBackend names an artifact store implementation.
type StoreBackend string

const (
	StoreFS   StoreBackend = "fs"
	StoreNATS StoreBackend = "nats"
	StoreS3   StoreBackend = "s3"
)

var storeEnum = newEnum("store.backend", StoreFS, StoreNATS, StoreS3)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelEnum = newEnum("logging.level", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)

// NormalizeLogLevel returns the typed level, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	if v, ok := logLevelEnum.normalize(raw); ok {
		return v
	}
	return LogLevelInfo
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatEnum = newEnum("logging.format", LogFormatJSON, LogFormatText)

// NormalizeLogFormat returns the typed format, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	if v, ok := logFormatEnum.normalize(raw); ok {
		return v
	}
	return LogFormatText
}
