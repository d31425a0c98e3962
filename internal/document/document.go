// Package document assembles generated sections into the final Markdown
// artifact with a verified table of contents.
package document

import (
	"fmt"
	"slices"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/markdown"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/section"
)

const (
	defaultTitle = "Documentation"
	tocTitle     = "Table of Contents"
)

// TOCEntry locates one section heading inside the rendered Markdown.
type TOCEntry struct {
	SectionID  string `json:"section_id"`
	Title      string `json:"title"`
	Anchor     string `json:"anchor"`
	ByteOffset int    `json:"byte_offset"`
	Line       int    `json:"line"` // 1-based
}

// Artifact is an assembled document. It is immutable; accessors return copies.
type Artifact struct {
	title       string
	sections    []section.Content
	text        string
	toc         []TOCEntry
	tocBlock    bool
	fingerprint string
}

// Title returns the document title.
func (a *Artifact) Title() string { return a.title }

// Markdown returns the rendered document.
func (a *Artifact) Markdown() string { return a.text }

// Sections returns the sections in document order.
func (a *Artifact) Sections() []section.Content { return slices.Clone(a.sections) }

// TOC returns the table of contents index.
func (a *Artifact) TOC() []TOCEntry { return slices.Clone(a.toc) }

// Fingerprint returns the content fingerprint of the rendered document.
func (a *Artifact) Fingerprint() string { return a.fingerprint }

// Section returns the content of one section.
func (a *Artifact) Section(id string) (section.Content, bool) {
	for _, c := range a.sections {
		if c.SectionID == id {
			return c, true
		}
	}
	return section.Content{}, false
}

// HasTOC reports whether the document carries a table of contents block.
func (a *Artifact) HasTOC() bool { return a.tocBlock }

// HTML renders the document as an HTML fragment.
func (a *Artifact) HTML() ([]byte, error) {
	out, err := markdown.RenderHTML([]byte(a.text))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAssembly, "failed to render document HTML").Build()
	}
	return out, nil
}

// IncompleteDocumentError reports a required section without content.
type IncompleteDocumentError struct {
	SectionID string
}

func (e *IncompleteDocumentError) Error() string {
	return fmt.Sprintf("required section %q has no content", e.SectionID)
}

// Option customizes assembly.
type Option func(*assembler)

// WithTitle sets the top-level document title.
func WithTitle(title string) Option {
	return func(a *assembler) {
		if strings.TrimSpace(title) != "" {
			a.title = strings.TrimSpace(title)
		}
	}
}

type assembler struct {
	title string
	buf   strings.Builder
	line  int
}

// Assemble merges contents into a document following outline order. A
// required section without content fails with a fatal error wrapping
// *IncompleteDocumentError; optional sections without content are skipped.
// Content for ids the outline does not plan, or given twice, is rejected.
func Assemble(ol outline.Outline, contents []section.Content, opts ...Option) (*Artifact, error) {
	a := &assembler{title: defaultTitle, line: 1}
	for _, opt := range opts {
		opt(a)
	}

	byID := make(map[string]section.Content, len(contents))
	for _, c := range contents {
		if _, ok := ol.Lookup(c.SectionID); !ok {
			return nil, errors.NewError(errors.CategoryAssembly, "content for unplanned section").
				Fatal().
				WithContext("section", c.SectionID).
				Build()
		}
		if _, dup := byID[c.SectionID]; dup {
			return nil, errors.NewError(errors.CategoryAssembly, "duplicate section content").
				Fatal().
				WithContext("section", c.SectionID).
				Build()
		}
		byID[c.SectionID] = c
	}

	ordered := make([]section.Content, 0, len(contents))
	for _, spec := range ol.Sections {
		c, ok := byID[spec.ID]
		if !ok {
			if spec.Required {
				return nil, errors.WrapError(&IncompleteDocumentError{SectionID: spec.ID},
					errors.CategoryAssembly, "document is missing a required section").
					Fatal().
					WithContext("section", spec.ID).
					Build()
			}
			continue
		}
		c.Title = spec.Title
		ordered = append(ordered, c)
	}

	a.writeLine("# " + a.title)
	a.writeLine("")
	if len(ordered) > 0 {
		a.writeLine("## " + tocTitle)
		a.writeLine("")
		for _, c := range ordered {
			a.writeLine(fmt.Sprintf("- [%s](#%s)", c.Title, markdown.Slug(c.Title)))
		}
		a.writeLine("")
	}

	toc := make([]TOCEntry, 0, len(ordered))
	for _, c := range ordered {
		toc = append(toc, TOCEntry{
			SectionID:  c.SectionID,
			Title:      c.Title,
			Anchor:     markdown.Slug(c.Title),
			ByteOffset: a.buf.Len(),
			Line:       a.line,
		})
		a.writeLine("## " + c.Title)
		a.writeLine("")
		if body := strings.TrimSpace(c.Body); body != "" {
			a.writeLine(body)
			a.writeLine("")
		}
	}

	text := strings.TrimRight(a.buf.String(), "\n") + "\n"
	if err := verifyTOC(text, toc); err != nil {
		return nil, err
	}

	return &Artifact{
		title:       a.title,
		sections:    ordered,
		text:        text,
		toc:         toc,
		tocBlock:    len(ordered) > 0,
		fingerprint: mdfp.CalculateFingerprintFromParts("", text),
	}, nil
}

func (a *assembler) writeLine(s string) {
	a.buf.WriteString(s)
	a.buf.WriteByte('\n')
	a.line += 1 + strings.Count(s, "\n")
}

// verifyTOC checks that every entry points at its own heading.
func verifyTOC(text string, toc []TOCEntry) error {
	for _, e := range toc {
		want := "## " + e.Title + "\n"
		if e.ByteOffset < 0 || e.ByteOffset+len(want) > len(text) || text[e.ByteOffset:e.ByteOffset+len(want)] != want {
			return errors.InternalError("table of contents offset does not match heading").
				WithContext("section", e.SectionID).
				WithContext("offset", e.ByteOffset).
				Build()
		}
		if line := strings.Count(text[:e.ByteOffset], "\n") + 1; line != e.Line {
			return errors.InternalError("table of contents line does not match heading").
				WithContext("section", e.SectionID).
				WithContext("line", e.Line).
				Build()
		}
	}
	return nil
}
