package outline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/feedback"
	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

func buildSnapshot(t *testing.T, files map[string]string) *snapshot.Snapshot {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	snap, err := snapshot.NewBuilder(0).Build(context.Background(), root)
	require.NoError(t, err)
	return snap
}

func TestPlan_BaselineForSmallLibrary(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"lib.go": "package lib\n"})
	o := NewPlanner(nil).Plan(snap, nil)

	require.Equal(t, []string{SectionOverview, SectionTechnologyStack, SectionSetup, SectionUsage, SectionContributing}, o.IDs())
	for _, s := range o.Sections {
		require.Equal(t, s.ID != SectionContributing, s.Required, s.ID)
		require.NotEmpty(t, s.Hint, s.ID)
	}
	spec, ok := o.Lookup(SectionTechnologyStack)
	require.True(t, ok)
	require.Contains(t, spec.Hint, "Go")
}

func TestPlan_SignalsAddOptionalSections(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{
		"README.md":                "# Svc\n",
		"LICENSE":                  "MIT",
		"Dockerfile":               "FROM alpine\n",
		"config/app.yaml":          "a: 1\n",
		"internal/api/routes.go":   "package api\n",
		"internal/api/api_test.go": "package api\n",
		"main.go":                  "package main\n",
	})
	o := NewPlanner(nil).Plan(snap, nil)
	require.Equal(t, []string{
		SectionOverview, SectionFeatures, SectionTechnologyStack, SectionSetup, SectionConfiguration,
		SectionUsage, SectionAPIDocumentation, SectionTesting, SectionDeployment, SectionLicense, SectionContributing,
	}, o.IDs())
	require.Equal(t, SectionOverview, o.Sections[0].ID)
	require.Equal(t, SectionContributing, o.Sections[len(o.Sections)-1].ID)
}

func TestPlan_PriorFeedbackAddsRequiredSection(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"lib.go": "package lib\n", "main.go": "package main\n"})
	prior := &feedback.Block{
		SchemaVersion: feedback.SchemaVersion,
		MissingSections: []feedback.MissingSection{
			{ID: SectionAPIDocumentation, Hint: "Document the HTTP handlers", Priority: quality.PriorityMedium},
			{ID: "faq", Hint: "Answer common questions", Priority: quality.PriorityMedium},
		},
		Actions: []feedback.Action{
			{Priority: quality.PriorityHigh, Axis: quality.AxisClarity, Text: "clarity scored 40"},
			{Priority: quality.PriorityLow, Axis: quality.AxisUsability, Text: "usability scored 65"},
		},
	}
	o := NewPlanner(nil).Plan(snap, prior)

	api, ok := o.Lookup(SectionAPIDocumentation)
	require.True(t, ok)
	require.True(t, api.Required)
	require.Equal(t, "Document the HTTP handlers", api.Hint)

	faq, ok := o.Lookup("faq")
	require.True(t, ok)
	require.Equal(t, "Faq", faq.Title)
	require.True(t, faq.Required)
	require.Equal(t, SectionContributing, o.Sections[len(o.Sections)-1].ID)
	require.Less(t, o.Index(SectionAPIDocumentation), o.Index("faq"))

	require.Equal(t, []string{"[high] clarity: clarity scored 40"}, o.Guidance)
}

func TestPlan_PriorFeedbackPromotesOptional(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"README.md": "# x\n", "lib.go": "package lib\n"})
	prior := &feedback.Block{MissingSections: []feedback.MissingSection{{ID: SectionFeatures, Hint: "List the features"}}}
	o := NewPlanner(nil).Plan(snap, prior)

	features, ok := o.Lookup(SectionFeatures)
	require.True(t, ok)
	require.True(t, features.Required)
	require.Contains(t, features.Hint, "Reviewer feedback: List the features")
	require.Len(t, o.Sections, len(o.IDs()))
	count := 0
	for _, id := range o.IDs() {
		if id == SectionFeatures {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestPlan_PriorFeedbackNormalizesSectionIDs(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"lib.go": "package lib\n", "main.go": "package main\n"})
	prior := &feedback.Block{MissingSections: []feedback.MissingSection{
		{ID: "API Documentation", Hint: "Document the handlers"},
		{ID: "installation", Hint: "Add numbered steps"},
		{ID: "  ", Hint: "dangling"},
	}}
	o := NewPlanner(nil).Plan(snap, prior)

	api, ok := o.Lookup(SectionAPIDocumentation)
	require.True(t, ok)
	require.True(t, api.Required)
	require.Equal(t, "API Documentation", api.Title)

	setup, ok := o.Lookup(SectionSetup)
	require.True(t, ok)
	require.Contains(t, setup.Hint, "Reviewer feedback: Add numbered steps")

	seen := map[string]int{}
	for _, sec := range o.Sections {
		require.NotEmpty(t, sec.ID)
		require.NotEmpty(t, sec.Title)
		seen[sec.Title]++
	}
	require.Equal(t, 1, seen["Installation"])
	_, ok = o.Lookup("installation")
	require.False(t, ok)
}

func TestPlan_ReadmeOnlyRepository(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"README.md": "# Notes\n"})
	o := NewPlanner(nil).Plan(snap, nil)

	tech, ok := o.Lookup(SectionTechnologyStack)
	require.True(t, ok)
	require.False(t, tech.Required)
	for _, id := range []string{SectionOverview, SectionSetup, SectionUsage} {
		spec, _ := o.Lookup(id)
		require.True(t, spec.Required, id)
	}
}

func TestPlan_NilSnapshotNeverFails(t *testing.T) {
	o := NewPlanner(nil).Plan(nil, nil)
	require.Equal(t, []string{SectionOverview, SectionTechnologyStack, SectionSetup, SectionUsage, SectionContributing}, o.IDs())
}

func TestPrecedingTitles(t *testing.T) {
	o := Outline{Sections: []SectionSpec{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}}}
	require.Nil(t, o.PrecedingTitles("a"))
	require.Equal(t, []string{"A", "B"}, o.PrecedingTitles("c"))
	require.Nil(t, o.PrecedingTitles("zzz"))
}

func TestTitleFor(t *testing.T) {
	require.Equal(t, "Installation", TitleFor(SectionSetup))
	require.Equal(t, "Release Notes", TitleFor("release_notes"))
}

func TestIDForTitle(t *testing.T) {
	require.Equal(t, SectionSetup, IDForTitle("Installation"))
	require.Equal(t, SectionAPIDocumentation, IDForTitle("api documentation"))
	require.Equal(t, "release_notes", IDForTitle("Release Notes"))
	require.Equal(t, "faq", IDForTitle("  FAQ?! "))
}
