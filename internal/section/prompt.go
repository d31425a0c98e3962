package section

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/repodoc/internal/generation"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

const (
	summaryLanguages    = 5
	summaryDependencies = 12
	summaryEntryPoints  = 5
)

// systemPrompt is sent with every section request.
const systemPrompt = "You write one section of a README for a software repository. " +
	"Reply with GitHub-flavored Markdown only. Do not repeat the section title as a heading. " +
	"Do not invent facts that the repository summary does not support."

// Summary is the condensed view of a snapshot embedded in prompts.
type Summary struct {
	Name         string
	ProjectType  snapshot.ProjectType
	Complexity   snapshot.Complexity
	Languages    []string // "Go (62.5%)"
	Dependencies map[snapshot.Ecosystem][]string
	Ecosystems   []snapshot.Ecosystem
	EntryPoints  []string
	Readme       string
	SourceFiles  int
}

// Summarize condenses a snapshot. A nil snapshot yields an empty summary.
func Summarize(snap *snapshot.Snapshot) Summary {
	if snap == nil {
		return Summary{}
	}
	s := Summary{
		Name:         snap.Name(),
		ProjectType:  snap.ProjectType(),
		Complexity:   snap.Complexity(),
		Dependencies: map[snapshot.Ecosystem][]string{},
		Ecosystems:   snap.Ecosystems(),
		SourceFiles:  snap.SourceFileCount(),
	}
	for i, h := range snap.Histogram() {
		if i == summaryLanguages {
			break
		}
		s.Languages = append(s.Languages, fmt.Sprintf("%s (%.1f%%)", snapshot.DisplayName(h.Language), h.Percentage))
	}
	for _, eco := range s.Ecosystems {
		deps := snap.Dependencies(eco)
		if len(deps) > summaryDependencies {
			deps = deps[:summaryDependencies]
		}
		s.Dependencies[eco] = deps
	}
	sig := snap.Signals()
	s.EntryPoints = sig.EntryPoints
	if len(s.EntryPoints) > summaryEntryPoints {
		s.EntryPoints = s.EntryPoints[:summaryEntryPoints]
	}
	s.Readme = sig.ReadmeExcerpt
	return s
}

// PromptInput is everything one section prompt is built from.
type PromptInput struct {
	Spec        outline.SectionSpec
	Summary     Summary
	Preceding   []string // titles of earlier sections, in outline order
	Guidance    []string // run-wide reviewer feedback
	MaxTokens   int
	Temperature float64
}

// ComposePrompt builds the generation request for one section.
func ComposePrompt(in PromptInput) generation.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Section: %s\n", in.Spec.Title)
	if in.Spec.Hint != "" {
		fmt.Fprintf(&b, "Focus: %s\n", in.Spec.Hint)
	}

	b.WriteString("\nRepository summary:\n")
	writeSummary(&b, in.Summary)

	if len(in.Preceding) > 0 {
		b.WriteString("\nSections already written (do not repeat their content):\n")
		for _, t := range in.Preceding {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if len(in.Guidance) > 0 {
		b.WriteString("\nReviewer feedback from the previous run:\n")
		for _, g := range in.Guidance {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	return generation.Request{
		System:      systemPrompt,
		Prompt:      b.String(),
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	}
}

func writeSummary(b *strings.Builder, s Summary) {
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(b, "- Name: %s\n", name)
	if s.ProjectType != "" {
		fmt.Fprintf(b, "- Project type: %s\n", strings.ReplaceAll(string(s.ProjectType), "_", " "))
	}
	if s.Complexity != "" {
		fmt.Fprintf(b, "- Complexity: %s (%d source files)\n", s.Complexity, s.SourceFiles)
	}
	if len(s.Languages) > 0 {
		fmt.Fprintf(b, "- Languages: %s\n", strings.Join(s.Languages, ", "))
	} else {
		b.WriteString("- Languages: none detected\n")
	}
	for _, eco := range s.Ecosystems {
		deps := s.Dependencies[eco]
		if len(deps) == 0 {
			fmt.Fprintf(b, "- %s manifest present\n", eco)
			continue
		}
		fmt.Fprintf(b, "- %s dependencies: %s\n", eco, strings.Join(deps, ", "))
	}
	if len(s.EntryPoints) > 0 {
		fmt.Fprintf(b, "- Entry points: %s\n", strings.Join(s.EntryPoints, ", "))
	}
	if s.Readme != "" {
		fmt.Fprintf(b, "- Existing README excerpt: %q\n", s.Readme)
	}
}
