// Package section generates the body of every planned documentation section by
// calling the generation service through the per-call retry state machine.
package section

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/generation"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/metrics"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/retry"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

// PlaceholderMarker starts the body of every section whose generation failed.
const PlaceholderMarker = "<!-- repodoc:placeholder -->"

// Content is the generated body of one section.
type Content struct {
	SectionID        string `json:"section_id"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	WordCount        int    `json:"word_count"`
	Attempts         int    `json:"attempts"`
	GenerationFailed bool   `json:"generation_failed"`
}

// DegradationKind says what happened to a section that could not be generated.
type DegradationKind string

const (
	DegradedPlaceholder DegradationKind = "placeholder"
	DegradedOmitted     DegradationKind = "omitted"
)

// Degradation reports one section that failed generation.
type Degradation struct {
	SectionID string          `json:"section_id"`
	Required  bool            `json:"required"`
	Kind      DegradationKind `json:"kind"`
	Attempts  int             `json:"attempts"`
	Reason    string          `json:"reason"`
}

// Options tunes a Generator.
type Options struct {
	Policy      retry.Policy
	Timeout     time.Duration
	Concurrency int
	MaxTokens   int
	Temperature float64
}

// OptionsFromConfig derives generator options from configuration.
func OptionsFromConfig(p config.PipelineConfig, g config.GenerationConfig) Options {
	return Options{
		Policy:      retry.FromConfig(p),
		Timeout:     p.GenerationTimeout(),
		Concurrency: p.SectionConcurrency,
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
	}
}

// Generator produces section content.
type Generator struct {
	service  generation.Service
	opts     Options
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewGenerator creates a Generator. A nil logger or recorder uses the defaults.
func NewGenerator(service generation.Service, opts Options, logger *slog.Logger, recorder metrics.Recorder) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Generator{service: service, opts: opts, logger: logger, recorder: recorder}
}

// Generate produces the content of one section. Service failures yield a
// placeholder with GenerationFailed set; the error is non-nil only when ctx
// is done.
func (g *Generator) Generate(ctx context.Context, spec outline.SectionSpec, snap *snapshot.Snapshot, ol outline.Outline) (Content, error) {
	return g.generate(ctx, spec, Summarize(snap), ol)
}

func (g *Generator) generate(ctx context.Context, spec outline.SectionSpec, summary Summary, ol outline.Outline) (Content, error) {
	req := ComposePrompt(PromptInput{
		Spec:        spec,
		Summary:     summary,
		Preceding:   ol.PrecedingTitles(spec.ID),
		Guidance:    ol.Guidance,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})

	caller := generation.Caller{
		Service: g.service,
		Policy:  g.opts.Policy,
		Timeout: g.opts.Timeout,
		OnTransition: func(t generation.Transition) {
			if t.To != generation.StateRetrying {
				return
			}
			kind := string(generation.Classify(t.Err).Kind)
			g.recorder.IncGenerationRetry(kind)
			g.logger.Debug("Retrying section generation",
				logfields.Section(spec.ID),
				logfields.Attempt(t.Retry),
				slog.String("kind", kind))
		},
	}

	out, err := caller.Do(ctx, req)
	if err != nil {
		return Content{}, err
	}
	g.recorder.IncGenerationCall(string(out.State))
	g.recorder.ObserveGenerationAttempts(spec.ID, out.Attempts)

	if out.State == generation.StateSucceeded {
		body := normalizeBody(out.Text, spec.Title)
		return Content{
			SectionID: spec.ID,
			Title:     spec.Title,
			Body:      body,
			WordCount: CountWords(body),
			Attempts:  out.Attempts,
		}, nil
	}

	g.logger.Warn("Section generation degraded",
		logfields.Section(spec.ID),
		logfields.Attempt(out.Attempts),
		logfields.Error(out.Err))
	body := Placeholder(spec.Title, out.Err)
	return Content{
		SectionID:        spec.ID,
		Title:            spec.Title,
		Body:             body,
		WordCount:        0,
		Attempts:         out.Attempts,
		GenerationFailed: true,
	}, nil
}

// GenerateAll generates every section of the outline with at most
// Options.Concurrency calls in flight. Contents follow outline order. A failed
// section keeps its placeholder when it is required or baseline; otherwise it
// is omitted. Both cases are reported as degradations.
func (g *Generator) GenerateAll(ctx context.Context, ol outline.Outline, snap *snapshot.Snapshot) ([]Content, []Degradation, error) {
	summary := Summarize(snap)
	results := make([]Content, len(ol.Sections))
	errs := make([]error, len(ol.Sections))

	sem := make(chan struct{}, g.opts.Concurrency)
	var wg sync.WaitGroup
	for i, spec := range ol.Sections {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int, spec outline.SectionSpec) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = g.generate(ctx, spec, summary, ol)
		}(i, spec)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	contents := make([]Content, 0, len(results))
	var degraded []Degradation
	for i, c := range results {
		spec := ol.Sections[i]
		if !c.GenerationFailed {
			contents = append(contents, c)
			continue
		}
		d := Degradation{
			SectionID: spec.ID,
			Required:  spec.Required,
			Kind:      DegradedPlaceholder,
			Attempts:  c.Attempts,
			Reason:    placeholderReason(c.Body),
		}
		if keepPlaceholder(spec) {
			contents = append(contents, c)
		} else {
			d.Kind = DegradedOmitted
		}
		degraded = append(degraded, d)
	}
	return contents, degraded, nil
}

// keepPlaceholder reports whether a failed section stays in the document.
// Baseline sections keep their slot even when planned as optional.
func keepPlaceholder(spec outline.SectionSpec) bool {
	return spec.Required || slices.Contains(outline.BaselineRequired, spec.ID)
}

// Placeholder renders the body used for a section that could not be generated.
func Placeholder(title string, cause error) string {
	reason := "the generation service did not respond"
	if cause != nil {
		reason = string(generation.Classify(cause).Kind)
	}
	return fmt.Sprintf("%s\n_%s could not be generated in this run (%s)._\n",
		PlaceholderMarker, title, strings.ReplaceAll(reason, "_", " "))
}

// IsPlaceholder reports whether body is a generated placeholder.
func IsPlaceholder(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), PlaceholderMarker)
}

func placeholderReason(body string) string {
	start := strings.LastIndex(body, "(")
	end := strings.LastIndex(body, ")")
	if start < 0 || end <= start {
		return ""
	}
	return body[start+1 : end]
}

// CountWords counts whitespace-separated words outside fenced code blocks.
func CountWords(body string) int {
	n := 0
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		n += len(strings.Fields(line))
	}
	return n
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// normalizeBody trims the completion, drops a leading heading that repeats the
// section title and demotes level 1 and 2 headings below the section heading.
func normalizeBody(text, title string) string {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")), "\n")
	if len(lines) > 0 {
		first := strings.TrimSpace(strings.TrimLeft(lines[0], "#"))
		if strings.HasPrefix(lines[0], "#") && strings.EqualFold(first, title) {
			lines = lines[1:]
		}
	}
	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		switch {
		case strings.HasPrefix(line, "# "):
			lines[i] = "###" + line[1:]
		case strings.HasPrefix(line, "## "):
			lines[i] = "#" + line
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
