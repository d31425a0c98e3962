package review

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/document"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/section"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

func goSnapshot(t *testing.T, extra map[string]string) *snapshot.Snapshot {
	t.Helper()
	files := map[string]string{
		"go.mod":    "module example.com/svc\n\ngo 1.22\n",
		"main.go":   "package main\n",
		"server.go": "package main\n",
	}
	for k, v := range extra {
		files[k] = v
	}
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	snap, err := snapshot.NewBuilder(0).Build(context.Background(), dir)
	require.NoError(t, err)
	return snap
}

const goodBody = "This service is written in Go and exposes a small HTTP interface for teams. " +
	"Install the toolchain first and keep the module cache warm between builds. " +
	"Run the binary from the repository root so relative paths resolve correctly.\n\n" +
	"1. Clone the repository to your machine.\n" +
	"2. Build the binary with the Go toolchain.\n\n" +
	"```sh\ngo build ./...\n```\n\n" +
	"Configuration is read at startup and validated before the server accepts traffic on its port."

func baselineOutline() outline.Outline {
	var specs []outline.SectionSpec
	for _, id := range outline.BaselineRequired {
		specs = append(specs, outline.SectionSpec{ID: id, Title: outline.TitleFor(id), Required: true})
	}
	return outline.Outline{Sections: specs}
}

func assemble(t *testing.T, bodies map[string]string) *document.Artifact {
	t.Helper()
	ol := baselineOutline()
	var contents []section.Content
	for _, spec := range ol.Sections {
		body, ok := bodies[spec.ID]
		if !ok {
			body = goodBody
		}
		contents = append(contents, section.Content{
			SectionID:        spec.ID,
			Body:             body,
			WordCount:        section.CountWords(body),
			GenerationFailed: section.IsPlaceholder(body),
		})
	}
	doc, err := document.Assemble(ol, contents, document.WithTitle("svc"))
	require.NoError(t, err)
	return doc
}

func TestReview_CompletenessFullWhenSectionsLongEnough(t *testing.T) {
	require.GreaterOrEqual(t, section.CountWords(goodBody), DefaultPolicy().MinSectionWords)
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, nil), goSnapshot(t, nil))
	require.Equal(t, 100, card.Score(quality.AxisCompleteness))
	for _, d := range card.Deficiencies {
		require.NotEqual(t, quality.KindMissingSection, d.Kind, d.Description)
	}
}

func TestReview_CompletenessBelowThresholdWhenSectionShort(t *testing.T) {
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, map[string]string{
		outline.SectionSetup: "Run make.",
	}), goSnapshot(t, nil))
	require.Less(t, card.Score(quality.AxisCompleteness), 70)

	var found bool
	for _, d := range card.Deficiencies {
		if d.Kind == quality.KindMissingSection && d.SectionID == outline.SectionSetup {
			found = true
			require.Equal(t, quality.PriorityHigh, d.Priority)
		}
	}
	require.True(t, found)
}

func TestReview_CompletenessBelowPassThresholdWithManyShortSections(t *testing.T) {
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, map[string]string{
		outline.SectionSetup: "Run make.",
		outline.SectionUsage: "Use it.",
	}), goSnapshot(t, nil))
	require.Less(t, card.Score(quality.AxisCompleteness), 70)
	require.Equal(t, quality.KindAxisBelowThreshold, card.Deficiencies[0].Kind)
	require.Equal(t, quality.AxisCompleteness, card.Deficiencies[0].Axis)
}

func TestReview_PlaceholderCountsAsMissing(t *testing.T) {
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, map[string]string{
		outline.SectionUsage: section.Placeholder("Usage", nil),
	}), goSnapshot(t, nil))
	require.Equal(t, DefaultPolicy().PassThreshold-1, card.Score(quality.AxisCompleteness))
	require.Less(t, card.Score(quality.AxisAccuracy), 100)
}

func TestReview_AccuracyCitesLanguages(t *testing.T) {
	snap := goSnapshot(t, nil)
	r := NewReviewer(DefaultPolicy())
	require.Equal(t, 100, r.Review(assemble(t, nil), snap).Score(quality.AxisAccuracy))

	noGo := strings.NewReplacer("Go", "the", "go build", "make build").Replace(goodBody)
	card := r.Review(assemble(t, map[string]string{outline.SectionTechnologyStack: noGo}), snap)
	require.Equal(t, 0, card.Score(quality.AxisAccuracy))
}

func TestReview_AccuracyPenalizesPlaceholderTokens(t *testing.T) {
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, map[string]string{
		outline.SectionOverview: goodBody + " TODO: set your_token here.",
	}), goSnapshot(t, nil))
	require.Equal(t, 80, card.Score(quality.AxisAccuracy))
}

func TestReview_RecommendsAPIDocumentation(t *testing.T) {
	snap := goSnapshot(t, map[string]string{"api/routes.go": "package api\n"})
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, nil), snap)
	var found *quality.Deficiency
	for i, d := range card.Deficiencies {
		if d.SectionID == outline.SectionAPIDocumentation {
			found = &card.Deficiencies[i]
		}
	}
	require.NotNil(t, found)
	require.Equal(t, quality.KindMissingSection, found.Kind)
	require.Equal(t, quality.PriorityMedium, found.Priority)
}

func TestReview_UsabilityAndClarity(t *testing.T) {
	card := NewReviewer(DefaultPolicy()).Review(assemble(t, nil), goSnapshot(t, nil))
	require.Equal(t, 100, card.Score(quality.AxisUsability))
	require.GreaterOrEqual(t, card.Score(quality.AxisClarity), 70)
	require.Equal(t, quality.Approved, card.Approval)
}

func TestReview_Deterministic(t *testing.T) {
	snap := goSnapshot(t, map[string]string{"api/routes.go": "package api\n"})
	doc := assemble(t, map[string]string{outline.SectionSetup: "Run make."})
	r := NewReviewer(DefaultPolicy())
	first := r.Review(doc, snap)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, r.Review(doc, snap))
	}
}

func TestReview_NilDocument(t *testing.T) {
	card := NewReviewer(DefaultPolicy()).Review(nil, nil)
	require.Equal(t, 0, card.Overall)
	require.Equal(t, quality.RequiresRevision, card.Approval)
	require.Len(t, card.Deficiencies, 4)
}

func TestPolicyPriorityAndApproval(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, quality.PriorityHigh, p.PriorityFor(30))
	require.Equal(t, quality.PriorityMedium, p.PriorityFor(15))
	require.Equal(t, quality.PriorityLow, p.PriorityFor(14))
	require.Equal(t, quality.Approved, p.ApprovalFor(85))
	require.Equal(t, quality.ApprovedWithRecommendations, p.ApprovalFor(70))
	require.Equal(t, quality.RequiresRevision, p.ApprovalFor(69))
}
