// Package scoring computes the final weighted SEO score for a parsed page:
// nine category scores combined through an industry weight profile, a
// competitive difficulty adjustment on the content and technical
// contributions, a letter grade and per-category breakdown. Results are
// memoized through the analysis cache when a URL is provided.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/seoscope/backend/cache"
	"github.com/seoscope/backend/config"
	"github.com/seoscope/backend/metrics"
	"github.com/seoscope/backend/pagedata"
)

// Analysis type recorded on cache entries.
const cacheType = "score_calculation"

// AnalysisCache is the slice of the cache contract the calculator uses.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, url string, o cache.Options) (json.RawMessage, bool)
	StoreAnalysis(ctx context.Context, url string, data any, o cache.Options) bool
}

// Calculator computes score results. Stateless apart from the injected
// cache; safe for concurrent use.
type Calculator struct {
	cfg     *config.Config
	cache   AnalysisCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customises the Calculator.
type Option func(*Calculator)

// WithCache injects the analysis cache. Without it every call recomputes.
func WithCache(c AnalysisCache) Option { return func(s *Calculator) { s.cache = c } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Calculator) { s.logger = l } }

// WithMetrics wires the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Calculator) { s.metrics = m } }

// New creates a Calculator using cfg's weight profiles and grade bands.
func New(cfg *config.Config, opts ...Option) *Calculator {
	c := &Calculator{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Calculate scores the page. It returns pagedata.InvalidInputError when the
// page is missing required sections; cache failures are non-fatal and fall
// back to recomputation.
func (c *Calculator) Calculate(ctx context.Context, page *pagedata.Page, sctx Context) (*Result, error) {
	if err := pagedata.Validate(page); err != nil {
		return nil, err
	}

	cacheOpts := c.cacheOptions(sctx)
	if c.cache != nil && !sctx.DisableCache && sctx.URL != "" {
		if raw, ok := c.cache.GetAnalysis(ctx, sctx.URL, cacheOpts); ok {
			var cached Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				cached.PerformanceMetrics.CacheHit = true
				if c.metrics != nil {
					c.metrics.AnalysesTotal.WithLabelValues("score", "cache_hit").Inc()
				}
				return &cached, nil
			}
			c.logger.Warn("discarding undecodable cache entry", "url", sctx.URL)
		}
	}

	started := time.Now()
	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	weights, industry := c.cfg.WeightsFor(sctx.Industry)

	categories := map[string]CategoryScore{
		"title":            c.scoreTitle(page, sctx),
		"meta_description": c.scoreMetaDescription(page),
		"headings":         c.scoreHeadings(page),
		"content":          c.scoreContent(page),
		"images":           c.scoreImages(page),
		"links":            c.scoreLinks(page),
		"technical":        c.scoreTechnical(page),
		"social_media":     c.scoreSocialMedia(page),
		"structured_data":  c.scoreStructuredData(page),
	}

	multiplier := difficultyMultiplier(sctx.KeywordDifficulty, sctx.SearchVolume)

	overall := 0.0
	breakdown := make(map[string]Breakdown, len(categories))
	for name, cat := range categories {
		cat.Weight = weights[name]
		cat.MaxScore = 100
		categories[name] = cat

		contribution := cat.Score * float64(cat.Weight) / 100
		// The competitive adjustment applies to the content and
		// technical contributions only.
		if name == "content" || name == "technical" {
			contribution *= multiplier
		}
		overall += contribution

		breakdown[name] = Breakdown{
			WeightPercentage:      cat.Weight,
			ContributionToOverall: round1(contribution),
			Status:                statusFor(cat.Score),
		}
	}
	score := int(math.Round(clampF(overall, 0, 100)))

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	elapsed := time.Since(started)

	result := &Result{
		OverallScore:   score,
		Grade:          c.cfg.GradeFor(score),
		CategoryScores: categories,
		Breakdown:      breakdown,
		WeightsUsed:    weights,
		CompetitiveFactors: CompetitiveFactors{
			KeywordDifficulty:    sctx.KeywordDifficulty,
			SearchVolume:         sctx.SearchVolume,
			CompetitorCount:      sctx.CompetitorCount,
			DifficultyMultiplier: multiplier,
		},
		PerformanceMetrics: PerformanceMetrics{
			DurationMillis:   float64(elapsed.Microseconds()) / 1000,
			MemoryDeltaBytes: int64(memAfter.HeapAlloc) - int64(memBefore.HeapAlloc),
		},
		ScoringVersion: Version,
		ScoringMethod:  Method,
		Industry:       industry,
		CalculatedAt:   time.Now().UTC(),
	}

	if c.metrics != nil {
		c.metrics.AnalysesTotal.WithLabelValues("score", "computed").Inc()
		c.metrics.CalcDuration.Observe(elapsed.Seconds())
	}

	if c.cache != nil && !sctx.DisableCache && sctx.URL != "" {
		c.cache.StoreAnalysis(ctx, sctx.URL, result, cacheOpts)
	}
	return result, nil
}

func (c *Calculator) cacheOptions(sctx Context) cache.Options {
	return cache.Options{
		Type:        cacheType,
		ContentKind: sctx.ContentKind,
		ExtendedTTL: sctx.ExtendedTTL,
		Context: map[string]string{
			"industry":           sctx.Industry,
			"keyword_difficulty": sctx.KeywordDifficulty,
			"search_volume":      sctx.SearchVolume,
			"primary_keyword":    sctx.PrimaryKeyword,
			"competitor_count":   strconv.Itoa(sctx.CompetitorCount),
		},
	}
}

func (c *Calculator) scoreTitle(page *pagedata.Page, sctx Context) CategoryScore {
	cat := newCategory()
	title := page.Meta.Title
	length := page.Meta.TitleLength
	if length == 0 {
		length = len(title)
	}
	cat.Metrics["length"] = float64(length)

	if title == "" {
		cat.Issues = append(cat.Issues, "Missing title tag")
		cat.Recommendations = append(cat.Recommendations, "Add a title tag of 30-60 characters")
		return cat
	}

	switch {
	case length >= 30 && length <= 60:
		cat.Score = 100
	case length < 30:
		cat.Score = 50
		cat.Issues = append(cat.Issues, fmt.Sprintf("Title is too short (%d characters)", length))
		cat.Recommendations = append(cat.Recommendations, "Lengthen the title to 30-60 characters")
	default:
		cat.Score = 70
		cat.Issues = append(cat.Issues, fmt.Sprintf("Title is too long (%d characters)", length))
		cat.Recommendations = append(cat.Recommendations, "Shorten the title to 30-60 characters")
	}

	if kw := strings.TrimSpace(sctx.PrimaryKeyword); kw != "" {
		if strings.Contains(strings.ToLower(title), strings.ToLower(kw)) {
			cat.Score = clampF(cat.Score+10, 0, 100)
			cat.Metrics["has_primary_keyword"] = 1
		} else {
			cat.Metrics["has_primary_keyword"] = 0
			cat.Recommendations = append(cat.Recommendations,
				fmt.Sprintf("Include the primary keyword %q in the title", kw))
		}
	}
	return cat
}

func (c *Calculator) scoreMetaDescription(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	desc := page.Meta.Description
	length := page.Meta.DescriptionLength
	if length == 0 {
		length = len(desc)
	}
	cat.Metrics["length"] = float64(length)

	if desc == "" {
		cat.Issues = append(cat.Issues, "Missing meta description")
		cat.Recommendations = append(cat.Recommendations, "Add a meta description of 120-160 characters")
		return cat
	}

	switch {
	case length >= 120 && length <= 160:
		cat.Score = 100
	case length < 120:
		cat.Score = 60
		cat.Issues = append(cat.Issues, fmt.Sprintf("Meta description is too short (%d characters)", length))
		cat.Recommendations = append(cat.Recommendations, "Expand the meta description to 120-160 characters")
	default:
		cat.Score = 70
		cat.Issues = append(cat.Issues, fmt.Sprintf("Meta description is too long (%d characters)", length))
		cat.Recommendations = append(cat.Recommendations, "Trim the meta description to 120-160 characters")
	}
	return cat
}

func (c *Calculator) scoreHeadings(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	counts := page.Headings.Counts()
	cat.Metrics["h1_count"] = float64(counts[0])
	cat.Metrics["h2_count"] = float64(counts[1])
	cat.Metrics["h3_count"] = float64(counts[2])

	switch {
	case counts[0] == 1:
		cat.Score += 50
	case counts[0] == 0:
		cat.Issues = append(cat.Issues, "No H1 heading found")
		cat.Recommendations = append(cat.Recommendations, "Add exactly one H1 heading")
	default:
		cat.Score += 25
		cat.Issues = append(cat.Issues, fmt.Sprintf("Multiple H1 headings found (%d)", counts[0]))
		cat.Recommendations = append(cat.Recommendations, "Keep a single H1 and demote the rest")
	}

	if counts[1] > 0 {
		cat.Score += 25
		if counts[2] > 0 {
			cat.Score += 15
		}
	} else if counts[2] > 0 {
		cat.Issues = append(cat.Issues, "H3 headings used without any H2")
		cat.Recommendations = append(cat.Recommendations, "Nest headings without skipping levels")
	}
	if coherentHierarchy(counts) {
		cat.Score += 10
	}
	cat.Score = clampF(cat.Score, 0, 100)
	return cat
}

// coherentHierarchy reports that every used heading level below h1 has its
// parent level present.
func coherentHierarchy(counts [6]int) bool {
	deepest := -1
	for i := 5; i >= 0; i-- {
		if counts[i] > 0 {
			deepest = i
			break
		}
	}
	for i := 0; i <= deepest; i++ {
		if counts[i] == 0 {
			return false
		}
	}
	return deepest >= 0
}

func (c *Calculator) scoreContent(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	content := page.Content
	cat.Metrics["word_count"] = float64(content.WordCount)
	cat.Metrics["paragraph_count"] = float64(content.ParagraphCount)
	cat.Metrics["text_html_ratio"] = content.TextHTMLRatio

	switch {
	case content.WordCount >= 1500:
		cat.Score += 50
	case content.WordCount >= 800:
		cat.Score += 45
	case content.WordCount >= 300:
		cat.Score += 35
	case content.WordCount > 0:
		cat.Score += 15
		cat.Issues = append(cat.Issues, fmt.Sprintf("Thin content: %d words", content.WordCount))
		cat.Recommendations = append(cat.Recommendations, "Expand the content to at least 300 words")
	default:
		cat.Issues = append(cat.Issues, "No textual content found")
		cat.Recommendations = append(cat.Recommendations, "Add substantive textual content")
	}

	switch {
	case content.TextHTMLRatio >= 0.25:
		cat.Score += 25
	case content.TextHTMLRatio >= 0.10:
		cat.Score += 15
	case content.TextHTMLRatio > 0:
		cat.Score += 5
		cat.Issues = append(cat.Issues, "Low text-to-HTML ratio")
		cat.Recommendations = append(cat.Recommendations, "Reduce markup overhead relative to visible text")
	}

	switch {
	case content.ParagraphCount >= 5:
		cat.Score += 25
	case content.ParagraphCount >= 1:
		cat.Score += 10
	}
	cat.Score = clampF(cat.Score, 0, 100)
	return cat
}

func (c *Calculator) scoreImages(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	img := page.Images
	cat.Metrics["total"] = float64(img.TotalCount)
	cat.Metrics["with_alt"] = float64(img.WithAltCount)
	cat.Metrics["without_alt"] = float64(img.WithoutAlt)

	// Pages without images are not penalized.
	if img.TotalCount == 0 {
		cat.Score = 100
		return cat
	}

	cat.Score = float64(img.WithAltCount) / float64(img.TotalCount) * 100
	if img.WithoutAlt > 0 {
		cat.Issues = append(cat.Issues,
			fmt.Sprintf("%d of %d images are missing alt text", img.WithoutAlt, img.TotalCount))
		cat.Recommendations = append(cat.Recommendations, "Add descriptive alt text to every image")
	}
	if img.WithoutTitle > 0 {
		cat.Issues = append(cat.Issues,
			fmt.Sprintf("%d images are missing a title attribute", img.WithoutTitle))
	}
	return cat
}

func (c *Calculator) scoreLinks(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	links := page.Links
	cat.Metrics["total"] = float64(links.TotalCount)
	cat.Metrics["internal"] = float64(links.Internal)
	cat.Metrics["external"] = float64(links.External)

	if links.TotalCount == 0 {
		cat.Issues = append(cat.Issues, "No links found")
		cat.Recommendations = append(cat.Recommendations, "Add internal links and relevant external references")
		return cat
	}

	cat.Score = 40
	if links.Internal > 0 {
		cat.Score += 20
	} else {
		cat.Recommendations = append(cat.Recommendations, "Add internal links to related pages")
	}
	if links.External > 0 {
		cat.Score += 20
	} else {
		cat.Recommendations = append(cat.Recommendations, "Link to authoritative external sources")
	}
	if links.Internal > 0 && links.External > 0 {
		cat.Score += 10
	}
	if links.EmptyAnchor > 0 {
		penalty := float64(links.EmptyAnchor) * 5
		if penalty > 20 {
			penalty = 20
		}
		cat.Score -= penalty
		cat.Issues = append(cat.Issues,
			fmt.Sprintf("%d links have empty anchor text", links.EmptyAnchor))
		cat.Recommendations = append(cat.Recommendations, "Give every link descriptive anchor text")
	}
	cat.Score = clampF(cat.Score, 0, 100)
	return cat
}

func (c *Calculator) scoreTechnical(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	t := page.Technical

	if t.HasDoctype {
		cat.Score += 20
	} else {
		cat.Issues = append(cat.Issues, "Missing doctype declaration")
	}
	if t.HasLangAttribute {
		cat.Score += 15
	} else {
		cat.Issues = append(cat.Issues, "Missing lang attribute on <html>")
	}
	if t.HasSSL {
		cat.Score += 25
	} else {
		cat.Issues = append(cat.Issues, "Page is not served over HTTPS")
		cat.Recommendations = append(cat.Recommendations, "Serve the page over HTTPS")
	}
	if t.HasSchemaMarkup {
		cat.Score += 20
	} else {
		cat.Recommendations = append(cat.Recommendations, "Add structured data markup")
	}
	if t.HasOpenGraph {
		cat.Score += 20
	} else {
		cat.Recommendations = append(cat.Recommendations, "Add Open Graph tags")
	}

	inline := t.InlineStyles + t.InlineScripts
	cat.Metrics["inline_styles"] = float64(t.InlineStyles)
	cat.Metrics["inline_scripts"] = float64(t.InlineScripts)
	if inline > 0 {
		penalty := float64(inline) * 2
		if penalty > 20 {
			penalty = 20
		}
		cat.Score -= penalty
		cat.Issues = append(cat.Issues,
			fmt.Sprintf("%d inline style/script blocks increase page weight", inline))
	}
	cat.Score = clampF(cat.Score, 0, 100)
	return cat
}

func (c *Calculator) scoreSocialMedia(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	og := page.SocialMedia.OpenGraph
	tw := page.SocialMedia.TwitterCard

	ogRequired := []string{"og:title", "og:description", "og:image", "og:url"}
	ogPresent := 0
	for _, tag := range ogRequired {
		if og[tag] {
			ogPresent++
		}
	}
	twRequired := []string{"twitter:card", "twitter:title", "twitter:description"}
	twPresent := 0
	for _, tag := range twRequired {
		if tw[tag] {
			twPresent++
		}
	}

	cat.Metrics["open_graph_tags"] = float64(ogPresent)
	cat.Metrics["twitter_tags"] = float64(twPresent)
	cat.Score = float64(ogPresent)/float64(len(ogRequired))*60 +
		float64(twPresent)/float64(len(twRequired))*40
	cat.Score = round1(cat.Score)

	if ogPresent < len(ogRequired) {
		cat.Issues = append(cat.Issues, "Incomplete Open Graph tags")
		cat.Recommendations = append(cat.Recommendations,
			"Add og:title, og:description, og:image and og:url")
	}
	if twPresent < len(twRequired) {
		cat.Recommendations = append(cat.Recommendations, "Add Twitter Card tags")
	}
	return cat
}

func (c *Calculator) scoreStructuredData(page *pagedata.Page) CategoryScore {
	cat := newCategory()
	sd := page.StructuredData
	cat.Metrics["json_ld_blocks"] = float64(sd.JSONLDCount)

	if sd.JSONLDCount > 0 {
		cat.Score += 60
	} else {
		cat.Recommendations = append(cat.Recommendations, "Add JSON-LD structured data")
	}
	if sd.HasMicrodata {
		cat.Score += 25
	}
	if sd.HasRDFa {
		cat.Score += 15
	}
	if cat.Score == 0 {
		cat.Issues = append(cat.Issues, "No structured data found")
	}
	cat.Score = clampF(cat.Score, 0, 100)
	return cat
}

// difficultyMultiplier resolves the competitive adjustment from keyword
// difficulty and search volume. Without a difficulty signal it is neutral.
func difficultyMultiplier(difficulty, volume string) float64 {
	base := map[string]float64{
		"low":    1.0,
		"medium": 1.1,
		"high":   1.2,
	}[strings.ToLower(difficulty)]
	if base == 0 {
		return 1.0
	}

	bump := map[string]float64{
		"low":       -0.05,
		"medium":    0,
		"high":      0.05,
		"very-high": 0.1,
	}[strings.ToLower(volume)]

	m := base + bump
	if m < 1.0 {
		m = 1.0
	}
	if m > 1.3 {
		m = 1.3
	}
	return m
}

func statusFor(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 50:
		return "needs-improvement"
	default:
		return "poor"
	}
}

func newCategory() CategoryScore {
	return CategoryScore{
		Issues:          []string{},
		Recommendations: []string{},
		Metrics:         map[string]float64{},
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
