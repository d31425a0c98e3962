// Package review scores an assembled document on completeness, accuracy,
// clarity and usability. Scoring is a pure function of the document, the
// snapshot and the policy.
package review

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/repodoc/internal/document"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/section"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

var placeholderTokens = []*regexp.Regexp{
	regexp.MustCompile(`\bTODO\b`),
	regexp.MustCompile(`(?i)lorem ipsum`),
	regexp.MustCompile(`(?i)\byour_\w*`),
	regexp.MustCompile(`(?i)\breplace_this\b`),
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

var imperativeVerbs = map[string]struct{}{
	"install": {}, "run": {}, "clone": {}, "create": {}, "configure": {}, "set": {},
	"add": {}, "build": {}, "start": {}, "use": {}, "open": {}, "copy": {},
	"execute": {}, "download": {}, "navigate": {}, "edit": {}, "update": {},
	"deploy": {}, "call": {}, "import": {}, "enable": {}, "export": {}, "check": {},
	"define": {}, "send": {}, "launch": {}, "initialize": {}, "test": {},
}

// Reviewer scores documents.
type Reviewer struct {
	policy Policy
}

// NewReviewer returns a reviewer applying policy.
func NewReviewer(policy Policy) *Reviewer {
	return &Reviewer{policy: policy}
}

// Policy returns the reviewer's policy.
func (r *Reviewer) Policy() Policy { return r.policy }

type axisResult struct {
	score    int
	findings []quality.Deficiency
}

// Review scores doc against snap. A nil document scores zero on every axis.
func (r *Reviewer) Review(doc *document.Artifact, snap *snapshot.Snapshot) quality.Scorecard {
	results := map[quality.Axis]axisResult{}
	if doc != nil {
		dom := parseHTML(doc)
		results[quality.AxisCompleteness] = r.completeness(doc, snap)
		results[quality.AxisAccuracy] = r.accuracy(doc, snap)
		results[quality.AxisClarity] = r.clarity(dom)
		results[quality.AxisUsability] = r.usability(doc, dom)
	}

	card := quality.Scorecard{AxisScores: make(map[quality.Axis]int, len(quality.Axes)), Deficiencies: []quality.Deficiency{}}
	total := 0
	for _, axis := range quality.Axes {
		res := results[axis]
		score := clamp(res.score)
		card.AxisScores[axis] = score
		total += score
		if score < r.policy.PassThreshold {
			shortfall := r.policy.PassThreshold - score
			card.Deficiencies = append(card.Deficiencies, quality.Deficiency{
				Axis:        axis,
				Kind:        quality.KindAxisBelowThreshold,
				Description: fmt.Sprintf("%s scored %d, below the pass threshold of %d", axis, score, r.policy.PassThreshold),
				Priority:    r.policy.PriorityFor(shortfall),
			})
		}
		card.Deficiencies = append(card.Deficiencies, res.findings...)
	}
	card.Overall = clamp(int(math.Round(float64(total) / float64(len(quality.Axes)))))
	card.Approval = r.policy.ApprovalFor(card.Overall)
	return card
}

// baselineFor returns the baseline sections the document is judged on. The
// technology stack is not expected from a repository without source files.
func baselineFor(snap *snapshot.Snapshot) []string {
	if snap != nil && snap.SourceFileCount() > 0 {
		return outline.BaselineRequired
	}
	return slices.DeleteFunc(slices.Clone(outline.BaselineRequired), func(id string) bool {
		return id == outline.SectionTechnologyStack
	})
}

func usable(c section.Content, ok bool) bool {
	return ok && !c.GenerationFailed && !section.IsPlaceholder(c.Body)
}

func (r *Reviewer) completeness(doc *document.Artifact, snap *snapshot.Snapshot) axisResult {
	var res axisResult
	baseline := baselineFor(snap)
	credit := 0.0
	gaps := 0
	for _, id := range baseline {
		c, ok := doc.Section(id)
		title := outline.TitleFor(id)
		switch {
		case !ok:
			gaps++
			res.findings = append(res.findings, missing(id, quality.PriorityHigh,
				fmt.Sprintf("Add the required %s section", title)))
		case !usable(c, ok):
			gaps++
			res.findings = append(res.findings, missing(id, quality.PriorityHigh,
				fmt.Sprintf("Replace the placeholder in the %s section with real content", title)))
		default:
			words := section.CountWords(c.Body)
			credit += math.Min(1, float64(words)/float64(max(1, r.policy.MinSectionWords)))
			if words < r.policy.MinSectionWords {
				gaps++
				res.findings = append(res.findings, missing(id, quality.PriorityHigh,
					fmt.Sprintf("Expand the %s section to at least %d words (has %d)", title, r.policy.MinSectionWords, words)))
			}
		}
	}
	if len(baseline) > 0 {
		res.score = int(math.Round(credit / float64(len(baseline)) * 100))
	}
	// Any baseline gap fails the axis, however small the remaining shortfall.
	if gaps > 0 {
		res.score = min(res.score, r.policy.PassThreshold-1)
	}

	for _, rec := range recommendedSections(snap) {
		if c, ok := doc.Section(rec.id); usable(c, ok) {
			continue
		}
		res.findings = append(res.findings, missing(rec.id, quality.PriorityMedium,
			fmt.Sprintf("Add a %s section: %s", outline.TitleFor(rec.id), rec.reason)))
	}
	return res
}

func missing(id string, p quality.Priority, desc string) quality.Deficiency {
	return quality.Deficiency{
		Axis:        quality.AxisCompleteness,
		Kind:        quality.KindMissingSection,
		SectionID:   id,
		Description: desc,
		Priority:    p,
	}
}

type recommendation struct {
	id     string
	reason string
}

// recommendedSections lists optional sections whose snapshot signal is strong
// enough that leaving them out is a gap.
func recommendedSections(snap *snapshot.Snapshot) []recommendation {
	if snap == nil {
		return nil
	}
	sig := snap.Signals()
	var out []recommendation
	if snap.ProjectType() == snapshot.ProjectWebAPI || len(sig.APIDirs) > 0 {
		out = append(out, recommendation{outline.SectionAPIDocumentation, "the repository exposes API routes"})
	}
	if len(sig.ConfigFiles) > 0 {
		out = append(out, recommendation{outline.SectionConfiguration, "the repository ships configuration files"})
	}
	if len(sig.TestFiles) > 0 {
		out = append(out, recommendation{outline.SectionTesting, "the repository contains tests"})
	}
	if len(snap.Dependencies(snapshot.EcosystemDocker)) > 0 {
		out = append(out, recommendation{outline.SectionDeployment, "the repository builds container images"})
	}
	return out
}

func (r *Reviewer) accuracy(doc *document.Artifact, snap *snapshot.Snapshot) axisResult {
	var res axisResult
	score := 100
	if snap != nil {
		if langs := snap.TopLanguages(3); len(langs) > 0 {
			text := doc.Markdown()
			sectionID := ""
			if c, ok := doc.Section(outline.SectionTechnologyStack); usable(c, ok) {
				text = c.Body
				sectionID = outline.SectionTechnologyStack
			}
			var uncited []string
			for _, l := range langs {
				if !mentions(text, l) {
					uncited = append(uncited, snapshot.DisplayName(l))
				}
			}
			score = int(math.Round(float64(len(langs)-len(uncited)) / float64(len(langs)) * 100))
			if len(uncited) > 0 {
				res.findings = append(res.findings, quality.Deficiency{
					Axis:        quality.AxisAccuracy,
					Kind:        quality.KindAxisBelowThreshold,
					SectionID:   sectionID,
					Description: fmt.Sprintf("Mention the languages the repository actually uses: %s", strings.Join(uncited, ", ")),
					Priority:    quality.PriorityMedium,
				})
			}
		}
	}

	for _, c := range doc.Sections() {
		n := placeholderCount(c)
		if n == 0 {
			continue
		}
		score -= n * r.policy.PlaceholderPenalty
		res.findings = append(res.findings, quality.Deficiency{
			Axis:        quality.AxisAccuracy,
			Kind:        quality.KindPlaceholder,
			SectionID:   c.SectionID,
			Description: fmt.Sprintf("Remove %d placeholder token(s) from the %s section", n, c.Title),
			Priority:    quality.PriorityMedium,
		})
	}
	res.score = score
	return res
}

// mentions reports whether text names the language as a standalone word.
func mentions(text, lang string) bool {
	for _, name := range []string{snapshot.DisplayName(lang), lang} {
		re := regexp.MustCompile(`(?i)(^|[^\w+#])` + regexp.QuoteMeta(name) + `($|[^\w+#])`)
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func placeholderCount(c section.Content) int {
	n := 0
	if c.GenerationFailed || section.IsPlaceholder(c.Body) {
		n++
	}
	for _, re := range placeholderTokens {
		n += len(re.FindAllStringIndex(c.Body, -1))
	}
	return n
}

func parseHTML(doc *document.Artifact) *goquery.Document {
	out, err := doc.HTML()
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	node, err := html.Parse(bytes.NewReader(out))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	dom := goquery.NewDocumentFromNode(node)
	// The table of contents is navigation, not prose.
	dom.Find("h2#table-of-contents").NextFiltered("ul").Remove()
	return dom
}

func (r *Reviewer) clarity(dom *goquery.Document) axisResult {
	var res axisResult

	headings := 0
	if dom.Find("h2, h3, h4").Length() > 0 {
		headings = 100
	}

	items := dom.Find("li").Length()
	paragraphs := dom.Find("p").Length()
	bullets := 100.0
	if items+paragraphs > 0 {
		ratio := float64(items) / float64(items+paragraphs)
		if ratio > r.policy.MaxBulletRatio && r.policy.MaxBulletRatio < 1 {
			bullets = 100 * (1 - (ratio-r.policy.MaxBulletRatio)/(1-r.policy.MaxBulletRatio))
			res.findings = append(res.findings, quality.Deficiency{
				Axis:        quality.AxisClarity,
				Kind:        quality.KindAxisBelowThreshold,
				Description: fmt.Sprintf("Reduce bullet density: %.0f%% of blocks are list items", ratio*100),
				Priority:    quality.PriorityLow,
			})
		}
	}

	prose := dom.Clone()
	prose.Find("pre").Remove()
	var sentences, words int
	prose.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p").Length() > 0 {
			return
		}
		for _, sent := range sentenceEnd.Split(strings.TrimSpace(s.Text()), -1) {
			if n := len(strings.Fields(sent)); n > 0 {
				sentences++
				words += n
			}
		}
	})
	sentenceScore := 0.0
	if sentences > 0 {
		avg := float64(words) / float64(sentences)
		switch {
		case avg < r.policy.MinSentenceWords:
			sentenceScore = 100 * avg / r.policy.MinSentenceWords
		case avg > r.policy.MaxSentenceWords:
			sentenceScore = 100 * r.policy.MaxSentenceWords / avg
		default:
			sentenceScore = 100
		}
		if sentenceScore < 100 {
			res.findings = append(res.findings, quality.Deficiency{
				Axis:        quality.AxisClarity,
				Kind:        quality.KindAxisBelowThreshold,
				Description: fmt.Sprintf("Keep sentences between %.0f and %.0f words (average %.1f)", r.policy.MinSentenceWords, r.policy.MaxSentenceWords, avg),
				Priority:    quality.PriorityLow,
			})
		}
	}

	res.score = int(math.Round((float64(headings) + bullets + sentenceScore) / 3))
	return res
}

func (r *Reviewer) usability(doc *document.Artifact, dom *goquery.Document) axisResult {
	var res axisResult
	score := 0

	imperative := 0
	dom.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		for _, line := range strings.Split(s.Text(), "\n") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if _, ok := imperativeVerbs[strings.ToLower(strings.Trim(fields[0], "`*_:,"))]; ok {
				imperative++
			}
		}
	})
	switch {
	case imperative >= 2:
		score += 25
	case imperative == 1:
		score += 12
	}

	type signal struct {
		present bool
		advice  string
	}
	signals := []signal{
		{dom.Find("pre code, pre").Length() > 0, "Add fenced code blocks with runnable commands"},
		{doc.HasTOC(), "Add a table of contents"},
		{dom.Find("ol li").Length() >= 2, "Give setup and usage as numbered steps"},
	}
	for _, s := range signals {
		if s.present {
			score += 25
			continue
		}
		res.findings = append(res.findings, quality.Deficiency{
			Axis:        quality.AxisUsability,
			Kind:        quality.KindAxisBelowThreshold,
			Description: s.advice,
			Priority:    quality.PriorityLow,
		})
	}
	if imperative == 0 {
		res.findings = append(res.findings, quality.Deficiency{
			Axis:        quality.AxisUsability,
			Kind:        quality.KindAxisBelowThreshold,
			Description: "Start instructions with imperative verbs such as Install or Run",
			Priority:    quality.PriorityLow,
		})
	}
	res.score = score
	return res
}

func clamp(v int) int {
	return min(100, max(0, v))
}
