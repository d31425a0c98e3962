package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Step is one scripted response: either text or an error.
type Step struct {
	Text string
	Err  error
}

// Scripted is a deterministic Service for tests and offline runs. Responses are
// selected by the first registered key contained in the prompt; prompts that
// match nothing get the fallback renderer's output.
type Scripted struct {
	mu       sync.Mutex
	scripts  []scriptEntry
	calls    map[string]int
	requests []Request
	Fallback func(Request) string
}

type scriptEntry struct {
	key   string
	steps []Step
}

// NewScripted returns a Scripted service with the default fallback.
func NewScripted() *Scripted {
	return &Scripted{calls: map[string]int{}, Fallback: DefaultFallback}
}

// On registers the steps returned, in order, for prompts containing key.
// The last step repeats once the script is exhausted.
func (s *Scripted) On(key string, steps ...Step) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, scriptEntry{key: key, steps: steps})
	return s
}

// Complete implements Service.
func (s *Scripted) Complete(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	var step *Step
	for _, entry := range s.scripts {
		if !strings.Contains(req.Prompt, entry.key) || len(entry.steps) == 0 {
			continue
		}
		n := s.calls[entry.key]
		s.calls[entry.key] = n + 1
		if n >= len(entry.steps) {
			n = len(entry.steps) - 1
		}
		st := entry.steps[n]
		step = &st
		break
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if step == nil {
		return s.Fallback(req), nil
	}
	return step.Text, step.Err
}

// Calls returns how many times prompts matching key were served.
func (s *Scripted) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// Requests returns every request received so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// DefaultFallback renders a short, well-formed Markdown body so offline runs
// produce a reviewable document.
func DefaultFallback(req Request) string {
	title := "this section"
	languages := ""
	for _, line := range strings.Split(req.Prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "Section: "); ok && title == "this section" {
			title = strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutPrefix(line, "- Languages: "); ok && rest != "none detected" {
			languages = " The codebase is written in " + strings.TrimSpace(rest) + "."
		}
	}
	return fmt.Sprintf("This part of the guide covers %s for the project.%s "+
		"Run the commands below from the repository root to get started. "+
		"Each step builds on the previous one, so follow them in order and check the output before moving on.\n\n"+
		"1. Install the required toolchain.\n2. Configure the environment.\n3. Run the project.\n\n"+
		"```sh\nmake build\n```\n", strings.ToLower(title), languages)
}
