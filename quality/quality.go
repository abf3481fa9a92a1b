// Package quality evaluates a page across eight content quality dimensions
// and combines them into a weighted overall score with prioritized
// improvements. It consumes the raw markup, the canonical URL and the parsed
// page data; the readability dimension delegates to the readability
// analyzer.
package quality

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seoscope/backend/pagedata"
	"github.com/seoscope/backend/readability"
	"github.com/seoscope/backend/textstat"
)

// Score below which a dimension generates recommendations.
const recommendThreshold = 70

// Neutral midpoint used when a dimension's signals are absent.
const neutralScore = 50

// Assessor scores content quality. Stateless and safe for concurrent use.
type Assessor struct {
	weights     map[string]float64
	readability *readability.Analyzer
	logger      *slog.Logger
}

// New creates an Assessor. weights maps the eight dimension names to
// fractions summing to 1.0.
func New(weights map[string]float64, ra *readability.Analyzer, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{weights: weights, readability: ra, logger: logger}
}

// Assess evaluates the page. It never fails: malformed HTML degrades to
// neutral dimension scores and the result is always fully populated.
func (a *Assessor) Assess(html, url string, page *pagedata.Page) *Assessment {
	if page == nil {
		page = &pagedata.Page{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		a.logger.Warn("quality assessment degraded, unparseable html", "url", url, "error", err)
		doc = nil
	}

	text := ""
	if doc != nil {
		text = strings.TrimSpace(doc.Find("body").Text())
		if text == "" {
			text = strings.TrimSpace(doc.Text())
		}
	}
	counts := textstat.Analyze(text)

	read := a.readability.Analyze(text, html)

	dims := map[string]Dimension{
		"readability":       a.readabilityDimension(read),
		"structure":         a.structureDimension(doc, page),
		"completeness":      a.completenessDimension(page),
		"engagement":        a.engagementDimension(page, counts),
		"originality":       a.originalityDimension(text, counts),
		"relevance":         a.relevanceDimension(page, text),
		"technical_quality": a.technicalDimension(page),
		"user_experience":   a.userExperienceDimension(page),
	}

	overall := 0.0
	for name, d := range dims {
		overall += d.Score * a.weights[name]
	}
	overall = clamp(overall)

	result := &Assessment{
		Dimensions:          dims,
		OverallScore:        round1(overall),
		Recommendations:     a.recommend(dims),
		ImprovementPriority: a.prioritize(dims),
		ContentMetrics:      a.contentMetrics(doc, counts),
		Insights:            a.insights(dims, overall, counts),
	}
	return result
}

func (a *Assessor) readabilityDimension(r *readability.Result) Dimension {
	return Dimension{
		Score: r.Overall.Overall,
		Details: map[string]float64{
			"flesch_reading_ease":  r.FleschReadingEase.Score,
			"flesch_kincaid_grade": r.FleschKincaidGrade.Grade,
			"avg_sentence_length":  r.Sentence.AvgSentenceLength,
		},
	}
}

// structureDimension checks heading hierarchy validity and the presence of
// structural elements.
func (a *Assessor) structureDimension(doc *goquery.Document, page *pagedata.Page) Dimension {
	counts := page.Headings.Counts()
	h1 := counts[0]

	score := 0.0
	switch {
	case h1 == 1:
		score += 35
	case h1 > 1:
		score += 15
	}
	if counts[1] > 0 {
		score += 20
	}
	if !hasLevelSkip(counts) {
		score += 15
	}

	lists, quotes := 0, 0
	if doc != nil {
		lists = doc.Find("ul, ol").Length()
		quotes = doc.Find("blockquote, table, figure").Length()
	}
	if lists > 0 {
		score += 15
	}
	if quotes > 0 {
		score += 15
	}

	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"h1_count":      float64(h1),
			"h2_count":      float64(counts[1]),
			"list_count":    float64(lists),
			"heading_total": float64(page.Headings.Total()),
		},
	}
}

// hasLevelSkip reports a used heading level whose parent level is absent,
// e.g. an h3 with no h2 anywhere above it.
func hasLevelSkip(counts [6]int) bool {
	seen := false
	for i := 0; i < 6; i++ {
		if counts[i] > 0 {
			if !seen && i > 0 {
				return true
			}
			seen = true
		} else if seen {
			// Deeper levels after a gap are skips too.
			for j := i + 1; j < 6; j++ {
				if counts[j] > 0 {
					return true
				}
			}
			return false
		}
	}
	return false
}

func (a *Assessor) completenessDimension(page *pagedata.Page) Dimension {
	m := page.Meta
	score := 0.0
	if m.Title != "" {
		score += 15
	}
	if m.Description != "" {
		score += 15
	}
	if m.Keywords != "" {
		score += 5
	}
	if m.Author != "" {
		score += 5
	}
	if m.Canonical != "" {
		score += 10
	}

	words := page.Content.WordCount
	switch {
	case words >= 800:
		score += 30
	case words >= 300:
		score += 18
	case words > 0:
		score += 6
	}

	img := page.Images
	altFraction := 1.0
	if img.TotalCount > 0 {
		altFraction = float64(img.WithAltCount) / float64(img.TotalCount)
	}
	score += altFraction * 20

	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"word_count":   float64(words),
			"alt_fraction": round2(altFraction),
		},
	}
}

func (a *Assessor) engagementDimension(page *pagedata.Page, counts textstat.Counts) Dimension {
	words := page.Content.WordCount
	if words == 0 {
		words = counts.Words
	}
	if words == 0 && page.Links.TotalCount == 0 && page.Images.TotalCount == 0 {
		return Dimension{Score: neutralScore}
	}

	score := 30.0
	linkDensity := 0.0
	if words > 0 {
		linkDensity = float64(page.Links.TotalCount) / float64(words) * 100
	}
	if linkDensity >= 0.5 && linkDensity <= 5 {
		score += 25
	} else if page.Links.TotalCount > 0 {
		score += 10
	}
	if page.Links.Internal > 0 && page.Links.External > 0 {
		score += 15
	}
	if page.Images.TotalCount > 0 {
		score += 15
	}
	if mins := page.Content.ReadingTimeMins; mins >= 2 && mins <= 8 {
		score += 15
	}

	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"link_density": round2(linkDensity),
			"image_count":  float64(page.Images.TotalCount),
		},
	}
}

// originalityDimension applies duplicate-content heuristics: repeated
// sentences and low vocabulary diversity both pull the score down.
func (a *Assessor) originalityDimension(text string, counts textstat.Counts) Dimension {
	if counts.Words == 0 {
		return Dimension{Score: neutralScore}
	}

	sentences := textstat.Sentences(text)
	unique := make(map[string]struct{}, len(sentences))
	for _, s := range sentences {
		unique[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	duplicateRatio := 0.0
	if len(sentences) > 0 {
		duplicateRatio = 1 - float64(len(unique))/float64(len(sentences))
	}
	diversity := float64(counts.UniqueWords) / float64(counts.Words)

	score := 40 + diversity*40 + (1-duplicateRatio)*20
	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"duplicate_sentence_ratio": round2(duplicateRatio),
			"vocabulary_diversity":     round2(diversity),
		},
	}
}

// relevanceDimension measures keyword alignment between the title and the
// body and headings.
func (a *Assessor) relevanceDimension(page *pagedata.Page, text string) Dimension {
	title := strings.TrimSpace(page.Meta.Title)
	if title == "" {
		return Dimension{Score: neutralScore}
	}

	titleWords := significantWords(title)
	if len(titleWords) == 0 {
		return Dimension{Score: neutralScore}
	}

	bodyWords := make(map[string]struct{})
	for _, w := range textstat.Words(text) {
		bodyWords[strings.ToLower(w)] = struct{}{}
	}
	headingWords := make(map[string]struct{})
	for _, hs := range [][]string{page.Headings.H1, page.Headings.H2, page.Headings.H3} {
		for _, h := range hs {
			for _, w := range textstat.Words(h) {
				headingWords[strings.ToLower(w)] = struct{}{}
			}
		}
	}

	inBody, inHeadings := 0, 0
	for _, w := range titleWords {
		if _, ok := bodyWords[w]; ok {
			inBody++
		}
		if _, ok := headingWords[w]; ok {
			inHeadings++
		}
	}
	bodyOverlap := float64(inBody) / float64(len(titleWords))
	headingOverlap := float64(inHeadings) / float64(len(titleWords))

	score := 30 + bodyOverlap*40 + headingOverlap*30
	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"title_body_overlap":    round2(bodyOverlap),
			"title_heading_overlap": round2(headingOverlap),
		},
	}
}

func (a *Assessor) technicalDimension(page *pagedata.Page) Dimension {
	t := page.Technical
	score := 0.0
	if t.HasDoctype {
		score += 20
	}
	if t.HasLangAttribute {
		score += 15
	}
	if t.HasSSL {
		score += 25
	}
	if t.HasSchemaMarkup {
		score += 20
	}
	if t.HasOpenGraph {
		score += 20
	}
	inlinePenalty := float64(t.InlineStyles+t.InlineScripts) * 2
	if inlinePenalty > 20 {
		inlinePenalty = 20
	}
	score -= inlinePenalty

	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"inline_styles":  float64(t.InlineStyles),
			"inline_scripts": float64(t.InlineScripts),
		},
	}
}

func (a *Assessor) userExperienceDimension(page *pagedata.Page) Dimension {
	score := 0.0
	if page.Meta.Viewport != "" {
		score += 25
	}

	img := page.Images
	if img.TotalCount == 0 {
		score += 20
	} else {
		score += float64(img.WithAltCount) / float64(img.TotalCount) * 25
	}

	links := page.Links
	if links.TotalCount > 0 {
		emptyFraction := float64(links.EmptyAnchor) / float64(links.TotalCount)
		score += (1 - emptyFraction) * 25
	} else {
		score += 10
	}

	if page.Content.TextHTMLRatio >= 0.10 {
		score += 25
	} else if page.Content.TextHTMLRatio > 0 {
		score += page.Content.TextHTMLRatio / 0.10 * 25
	}

	return Dimension{
		Score: clamp(score),
		Details: map[string]float64{
			"text_html_ratio": round2(page.Content.TextHTMLRatio),
			"empty_anchors":   float64(links.EmptyAnchor),
		},
	}
}

func (a *Assessor) recommend(dims map[string]Dimension) []Recommendation {
	templates := map[string]Recommendation{
		"readability": {
			Type: "warning", Impact: "high",
			Message: "Content readability is below the comfortable range",
			Fix:     "Shorten sentences, simplify vocabulary and break up long paragraphs",
		},
		"structure": {
			Type: "warning", Impact: "high",
			Message: "Heading hierarchy is weak or inconsistent",
			Fix:     "Use exactly one H1 and nest H2/H3 headings without skipping levels",
		},
		"completeness": {
			Type: "warning", Impact: "high",
			Message: "Page is missing metadata or sufficient content depth",
			Fix:     "Fill in title, description and canonical URL, and expand thin content past 300 words",
		},
		"engagement": {
			Type: "suggestion", Impact: "medium",
			Message: "Content offers few engagement hooks",
			Fix:     "Add relevant internal and external links, images and scannable lists",
		},
		"originality": {
			Type: "suggestion", Impact: "medium",
			Message: "Content repeats itself or uses a narrow vocabulary",
			Fix:     "Remove duplicated passages and vary word choice",
		},
		"relevance": {
			Type: "suggestion", Impact: "medium",
			Message: "Body content does not reinforce the title's topic",
			Fix:     "Use the title's key terms naturally in headings and body text",
		},
		"technical_quality": {
			Type: "error", Impact: "high",
			Message: "Technical fundamentals are incomplete",
			Fix:     "Declare a doctype and lang attribute, serve over HTTPS and add structured data",
		},
		"user_experience": {
			Type: "suggestion", Impact: "medium",
			Message: "Page has user experience gaps",
			Fix:     "Add a viewport meta tag, alt text on images and descriptive anchor text",
		},
	}

	var recs []Recommendation
	for _, name := range sortedDimensionNames(dims) {
		d := dims[name]
		if d.Score >= recommendThreshold {
			continue
		}
		rec := templates[name]
		rec.Category = name
		if d.Score < 40 {
			rec.Impact = "high"
		}
		recs = append(recs, rec)
	}
	return recs
}

func (a *Assessor) prioritize(dims map[string]Dimension) []Priority {
	priorities := make([]Priority, 0, len(dims))
	for name, d := range dims {
		p := Priority{Dimension: name, Score: d.Score}
		switch {
		case d.Score < 40:
			p.Priority = "high"
		case d.Score < 70:
			p.Priority = "medium"
		default:
			p.Priority = "low"
		}
		gain := (100 - d.Score) * a.weights[name]
		p.Impact = fmt.Sprintf("Raising %s to 100 would add up to %.1f points to the overall score", name, gain)
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool {
		if priorities[i].Score != priorities[j].Score {
			return priorities[i].Score < priorities[j].Score
		}
		return priorities[i].Dimension < priorities[j].Dimension
	})
	return priorities
}

func (a *Assessor) contentMetrics(doc *goquery.Document, counts textstat.Counts) ContentMetrics {
	m := ContentMetrics{
		WordCount:      counts.Words,
		CharacterCount: counts.Characters,
		SentenceCount:  counts.Sentences,
	}
	if doc != nil {
		m.ParagraphCount = doc.Find("p").Length()
		m.ListCount = doc.Find("ul, ol").Length()
		m.ImageCount = doc.Find("img").Length()
		m.LinkCount = doc.Find("a[href]").Length()
	}
	return m
}

func (a *Assessor) insights(dims map[string]Dimension, overall float64, counts textstat.Counts) []string {
	var insights []string

	switch {
	case counts.Words == 0:
		insights = append(insights, "No textual content was found; quality dimensions fall back to neutral scores.")
	case overall >= 80:
		insights = append(insights, fmt.Sprintf("Content quality is strong at %.0f/100 across all eight dimensions.", overall))
	case overall >= 60:
		insights = append(insights, fmt.Sprintf("Content quality is solid at %.0f/100 but leaves room for improvement.", overall))
	default:
		insights = append(insights, fmt.Sprintf("Content quality is weak at %.0f/100 and needs systematic attention.", overall))
	}

	worstName, worst := "", 101.0
	bestName, best := "", -1.0
	for name, d := range dims {
		if d.Score < worst {
			worstName, worst = name, d.Score
		}
		if d.Score > best {
			bestName, best = name, d.Score
		}
	}
	insights = append(insights,
		fmt.Sprintf("The weakest dimension is %s at %.0f/100.", worstName, worst),
		fmt.Sprintf("The strongest dimension is %s at %.0f/100.", bestName, best))
	return insights
}

func significantWords(text string) []string {
	stop := map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {},
		"to": {}, "in": {}, "for": {}, "on": {}, "with": {}, "is": {},
	}
	var out []string
	for _, w := range textstat.Words(text) {
		lw := strings.ToLower(w)
		if _, ok := stop[lw]; ok {
			continue
		}
		out = append(out, lw)
	}
	return out
}

func sortedDimensionNames(dims map[string]Dimension) []string {
	names := make([]string, 0, len(dims))
	for name := range dims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
