package errors

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "acquisition", err: AcquisitionError("clone failed").Build(), expected: 8},
		{name: "assembly", err: NewError(CategoryAssembly, "missing section").Fatal().Build(), expected: 11},
		{name: "canceled", err: NewError(CategoryCanceled, "run canceled").Build(), expected: 130},
		{name: "wrapped classified", err: fmt.Errorf("outer: %w", AcquisitionError("x").Build()), expected: 8},
		{name: "unclassified", err: fmt.Errorf("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	err := WrapError(fmt.Errorf("boom"), CategoryInternal, "internal issue").Build()
	if got := quiet.FormatError(err); !strings.Contains(got, "use -v") {
		t.Errorf("expected hint for internal error, got %q", got)
	}
	if got := verbose.FormatError(err); !strings.Contains(got, "boom") {
		t.Errorf("expected cause in verbose output, got %q", got)
	}

	acq := AcquisitionError("clone failed").Build()
	if got := quiet.FormatError(acq); got != "Error (acquisition): clone failed" {
		t.Errorf("unexpected message %q", got)
	}
	if got := quiet.FormatError(fmt.Errorf("plain")); got != "Error: plain" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))

	code := adapter.Report(&out, ConfigError("missing provider").WithContext("field", "generation.provider").Build())
	if code != 7 {
		t.Fatalf("expected exit 7, got %d", code)
	}
	if !strings.Contains(out.String(), "missing provider") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "field=generation.provider") {
		t.Errorf("expected context in log, got %q", logs.String())
	}
}
