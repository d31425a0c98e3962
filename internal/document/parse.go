package document

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/markdown"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/section"
)

// Parse rebuilds an Artifact from Markdown written by Assemble or edited by
// hand. Level-two headings outside code fences delimit sections; their titles
// are mapped back to section ids.
func Parse(text string) (*Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ValidationError("document is empty").Build()
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	art := &Artifact{title: defaultTitle, text: text}
	type open struct {
		entry TOCEntry
		start int
	}
	var cur *open
	seen := map[string]bool{}
	flush := func(end int) {
		if cur == nil {
			return
		}
		body := strings.TrimSpace(text[cur.start:end])
		if cur.entry.Title != tocTitle && !seen[cur.entry.SectionID] {
			seen[cur.entry.SectionID] = true
			art.toc = append(art.toc, cur.entry)
			art.sections = append(art.sections, section.Content{
				SectionID:        cur.entry.SectionID,
				Title:            cur.entry.Title,
				Body:             body,
				WordCount:        section.CountWords(body),
				GenerationFailed: section.IsPlaceholder(body),
			})
		}
		cur = nil
	}

	offset, line := 0, 1
	inFence := false
	titleSet := false
	for _, raw := range strings.SplitAfter(text, "\n") {
		if raw == "" {
			break
		}
		l := strings.TrimRight(raw, "\r\n")
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		switch {
		case inFence:
		case strings.HasPrefix(l, "# ") && !titleSet:
			art.title = strings.TrimSpace(l[2:])
			titleSet = true
		case strings.HasPrefix(l, "## "):
			flush(offset)
			title := strings.TrimSpace(l[3:])
			if title == tocTitle {
				art.tocBlock = true
			}
			cur = &open{
				entry: TOCEntry{
					SectionID:  outline.IDForTitle(title),
					Title:      title,
					Anchor:     markdown.Slug(title),
					ByteOffset: offset,
					Line:       line,
				},
				start: offset + len(raw),
			}
		}
		offset += len(raw)
		line++
	}
	flush(len(text))

	art.fingerprint = mdfp.CalculateFingerprintFromParts("", text)
	return art, nil
}
