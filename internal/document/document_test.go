package document

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/markdown"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/section"
)

func sampleOutline() outline.Outline {
	return outline.Outline{Sections: []outline.SectionSpec{
		{ID: "overview", Title: "Project Overview", Required: true},
		{ID: "features", Title: "Features"},
		{ID: "setup", Title: "Installation", Required: true},
		{ID: "usage", Title: "Usage", Required: true},
	}}
}

func content(id, body string) section.Content {
	return section.Content{SectionID: id, Body: body, WordCount: section.CountWords(body), Attempts: 1}
}

func TestAssemble_OrderAndTOC(t *testing.T) {
	contents := []section.Content{
		content("usage", "Run `svc serve`.\n\n1. Start it.\n2. Query it."),
		content("overview", "A small service."),
		content("setup", "Install Go.\nThen build."),
	}
	doc, err := Assemble(sampleOutline(), contents, WithTitle("svc"))
	require.NoError(t, err)

	require.Equal(t, "svc", doc.Title())
	ids := []string{}
	for _, c := range doc.Sections() {
		ids = append(ids, c.SectionID)
	}
	require.Equal(t, []string{"overview", "setup", "usage"}, ids)

	text := doc.Markdown()
	require.True(t, strings.HasPrefix(text, "# svc\n\n## Table of Contents\n"))
	require.Contains(t, text, "- [Installation](#installation)\n")
	require.True(t, doc.HasTOC())

	lines := strings.Split(text, "\n")
	for _, e := range doc.TOC() {
		require.True(t, strings.HasPrefix(text[e.ByteOffset:], "## "+e.Title+"\n"))
		require.Equal(t, "## "+e.Title, lines[e.Line-1])
	}
	require.Equal(t, "installation", doc.TOC()[1].Anchor)
	require.NotEmpty(t, doc.Fingerprint())
}

func TestAssemble_AnchorsMatchRenderedHeadings(t *testing.T) {
	ol := outline.Outline{Sections: []outline.SectionSpec{
		{ID: "api_documentation", Title: "API Documentation", Required: true},
	}}
	doc, err := Assemble(ol, []section.Content{content("api_documentation", "GET /health")})
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, h := range markdown.Headings([]byte(doc.Markdown())) {
		ids[h.ID] = true
	}
	for _, e := range doc.TOC() {
		require.True(t, ids[e.Anchor], "anchor %s", e.Anchor)
	}
}

func TestAssemble_MissingRequiredIsFatal(t *testing.T) {
	contents := []section.Content{content("overview", "x"), content("usage", "y")}
	_, err := Assemble(sampleOutline(), contents)
	require.Error(t, err)

	var incomplete *IncompleteDocumentError
	require.True(t, stderrors.As(err, &incomplete))
	require.Equal(t, "setup", incomplete.SectionID)
	require.True(t, errors.IsFatal(err))
	require.True(t, errors.HasCategory(err, errors.CategoryAssembly))
}

func TestAssemble_IncompleteIffRequiredMissing(t *testing.T) {
	ol := sampleOutline()
	all := map[string]section.Content{
		"overview": content("overview", "a"),
		"features": content("features", "b"),
		"setup":    content("setup", "c"),
		"usage":    content("usage", "d"),
	}
	ids := ol.IDs()
	for mask := 0; mask < 1<<len(ids); mask++ {
		var contents []section.Content
		missingRequired := false
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				contents = append(contents, all[id])
				continue
			}
			spec, _ := ol.Lookup(id)
			missingRequired = missingRequired || spec.Required
		}
		_, err := Assemble(ol, contents)
		var incomplete *IncompleteDocumentError
		require.Equal(t, missingRequired, stderrors.As(err, &incomplete), "mask %b", mask)
		if !missingRequired {
			require.NoError(t, err)
		}
	}
}

func TestAssemble_RejectsOrphanAndDuplicate(t *testing.T) {
	base := []section.Content{content("overview", "a"), content("setup", "b"), content("usage", "c")}

	_, err := Assemble(sampleOutline(), append(base, content("changelog", "z")))
	require.Error(t, err)
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	sectionID, _ := classified.Context().GetString("section")
	require.Equal(t, "changelog", sectionID)

	_, err = Assemble(sampleOutline(), append(base, content("usage", "again")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestAssemble_DegradedPlaceholderKeepsSlot(t *testing.T) {
	placeholder := section.Content{SectionID: "setup", Body: section.Placeholder("Installation", nil), GenerationFailed: true}
	doc, err := Assemble(sampleOutline(), []section.Content{content("overview", "a"), placeholder, content("usage", "c")})
	require.NoError(t, err)
	c, ok := doc.Section("setup")
	require.True(t, ok)
	require.True(t, c.GenerationFailed)
	require.Contains(t, doc.Markdown(), section.PlaceholderMarker)
}

func TestArtifactHTML(t *testing.T) {
	doc, err := Assemble(sampleOutline(), []section.Content{
		content("overview", "Hello **world**."), content("setup", "b"), content("usage", "c"),
	})
	require.NoError(t, err)
	html, err := doc.HTML()
	require.NoError(t, err)
	require.Contains(t, string(html), "<strong>world</strong>")
	require.Contains(t, string(html), `<h2 id="project-overview">Project Overview</h2>`)
}

func TestAssemble_FingerprintStable(t *testing.T) {
	contents := []section.Content{content("overview", "a"), content("setup", "b"), content("usage", "c")}
	d1, err := Assemble(sampleOutline(), contents)
	require.NoError(t, err)
	d2, err := Assemble(sampleOutline(), contents)
	require.NoError(t, err)
	require.Equal(t, d1.Fingerprint(), d2.Fingerprint())
	require.Equal(t, d1.Markdown(), d2.Markdown())
}
