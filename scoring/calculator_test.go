package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoscope/backend/cache"
	"github.com/seoscope/backend/config"
	"github.com/seoscope/backend/pagedata"
)

// fakeCache is an in-memory AnalysisCache for exercising the memoization
// path without a database.
type fakeCache struct {
	entries map[string]json.RawMessage
	gets    int
	stores  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]json.RawMessage)}
}

func (f *fakeCache) GetAnalysis(_ context.Context, url string, o cache.Options) (json.RawMessage, bool) {
	f.gets++
	raw, ok := f.entries[url+"|"+o.Type]
	return raw, ok
}

func (f *fakeCache) StoreAnalysis(_ context.Context, url string, data any, o cache.Options) bool {
	f.stores++
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	f.entries[url+"|"+o.Type] = raw
	return true
}

func fullPage() *pagedata.Page {
	return &pagedata.Page{
		Meta: pagedata.Meta{
			Title:             "Complete Guide to Espresso Extraction",
			TitleLength:       37,
			Description:       "Learn how grind size, dose and water temperature shape espresso extraction, with practical recipes you can dial in at home today.",
			DescriptionLength: 129,
			Canonical:         "https://example.com/espresso",
			Viewport:          "width=device-width, initial-scale=1",
		},
		Headings: pagedata.Headings{
			H1: []string{"Espresso Extraction"},
			H2: []string{"Grind Size", "Water Temperature"},
			H3: []string{"Burr Grinders"},
		},
		Images: pagedata.Images{TotalCount: 4, WithAltCount: 4},
		Links:  pagedata.Links{TotalCount: 12, Internal: 8, External: 4},
		Content: pagedata.Content{
			WordCount:      1600,
			ParagraphCount: 9,
			TextHTMLRatio:  0.30,
		},
		Technical: pagedata.Technical{
			HasDoctype:       true,
			HasLangAttribute: true,
			HasSSL:           true,
			HasSchemaMarkup:  true,
			HasOpenGraph:     true,
		},
		SocialMedia: pagedata.SocialMedia{
			OpenGraph: map[string]bool{
				"og:title": true, "og:description": true,
				"og:image": true, "og:url": true,
			},
			TwitterCard: map[string]bool{
				"twitter:card": true, "twitter:title": true,
				"twitter:description": true,
			},
		},
		StructuredData: pagedata.StructuredData{JSONLDCount: 2, HasMicrodata: true},
	}
}

func TestCalculateFullPage(t *testing.T) {
	calc := New(config.Default())
	result, err := calc.Calculate(context.Background(), fullPage(), Context{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.OverallScore, 0)
	assert.LessOrEqual(t, result.OverallScore, 100)
	assert.Equal(t, Version, result.ScoringVersion)
	assert.Equal(t, Method, result.ScoringMethod)
	assert.Equal(t, "default", result.Industry)
	assert.Equal(t, config.Default().GradeFor(result.OverallScore), result.Grade)
	require.Len(t, result.CategoryScores, 9)
	require.Len(t, result.Breakdown, 9)

	total := 0
	for name, w := range result.WeightsUsed {
		total += w
		assert.Equal(t, w, result.CategoryScores[name].Weight, name)
	}
	assert.Equal(t, 100, total)
	assert.False(t, result.PerformanceMetrics.CacheHit)
	assert.GreaterOrEqual(t, result.PerformanceMetrics.DurationMillis, 0.0)
}

func TestMissingTitleScoresZero(t *testing.T) {
	page := fullPage()
	page.Meta.Title = ""
	page.Meta.TitleLength = 0

	calc := New(config.Default())
	result, err := calc.Calculate(context.Background(), page, Context{})
	require.NoError(t, err)

	title := result.CategoryScores["title"]
	assert.Equal(t, 0.0, title.Score)
	assert.Contains(t, title.Issues, "Missing title tag")
}

func TestTitleLengthBands(t *testing.T) {
	cases := []struct {
		name   string
		title  string
		length int
		want   float64
	}{
		{"optimal", "A perfectly sized title for search results", 43, 100},
		{"too short", "Short title", 11, 50},
		{"too long", "An overly long title", 75, 70},
	}

	calc := New(config.Default())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page := fullPage()
			page.Meta.Title = c.title
			page.Meta.TitleLength = c.length

			result, err := calc.Calculate(context.Background(), page, Context{})
			require.NoError(t, err)
			assert.Equal(t, c.want, result.CategoryScores["title"].Score)
		})
	}
}

func TestPrimaryKeywordBonus(t *testing.T) {
	calc := New(config.Default())
	page := fullPage()

	with, err := calc.Calculate(context.Background(), page, Context{PrimaryKeyword: "espresso"})
	require.NoError(t, err)
	without, err := calc.Calculate(context.Background(), page, Context{PrimaryKeyword: "kubernetes"})
	require.NoError(t, err)

	assert.Greater(t, with.CategoryScores["title"].Score, without.CategoryScores["title"].Score)
	assert.Equal(t, 1.0, with.CategoryScores["title"].Metrics["has_primary_keyword"])
	assert.Equal(t, 0.0, without.CategoryScores["title"].Metrics["has_primary_keyword"])
}

func TestImagesCategory(t *testing.T) {
	calc := New(config.Default())

	cases := []struct {
		name   string
		images pagedata.Images
		want   float64
	}{
		{"no images is not penalized", pagedata.Images{}, 100},
		{"all alt", pagedata.Images{TotalCount: 5, WithAltCount: 5}, 100},
		{"no alt", pagedata.Images{TotalCount: 5, WithoutAlt: 5}, 0},
		{"half alt", pagedata.Images{TotalCount: 4, WithAltCount: 2, WithoutAlt: 2}, 50},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page := fullPage()
			page.Images = c.images

			result, err := calc.Calculate(context.Background(), page, Context{})
			require.NoError(t, err)
			assert.Equal(t, c.want, result.CategoryScores["images"].Score)
		})
	}
}

func TestInvalidInput(t *testing.T) {
	calc := New(config.Default())

	for _, page := range []*pagedata.Page{nil, {}} {
		result, err := calc.Calculate(context.Background(), page, Context{})
		assert.Nil(t, result)
		var invalid *pagedata.InvalidInputError
		assert.True(t, errors.As(err, &invalid), "want InvalidInputError, got %v", err)
	}
}

func TestDeterministicWithoutCache(t *testing.T) {
	calc := New(config.Default())
	sctx := Context{URL: "https://example.com/espresso", DisableCache: true}

	first, err := calc.Calculate(context.Background(), fullPage(), sctx)
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), fullPage(), sctx)
	require.NoError(t, err)

	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.Grade, second.Grade)
	assert.Equal(t, first.CategoryScores, second.CategoryScores)
	assert.Equal(t, first.Breakdown, second.Breakdown)
}

func TestCacheRoundTrip(t *testing.T) {
	fc := newFakeCache()
	calc := New(config.Default(), WithCache(fc))
	sctx := Context{URL: "https://example.com/espresso", Industry: "blog"}

	first, err := calc.Calculate(context.Background(), fullPage(), sctx)
	require.NoError(t, err)
	assert.False(t, first.PerformanceMetrics.CacheHit)
	assert.Equal(t, 1, fc.stores)

	second, err := calc.Calculate(context.Background(), fullPage(), sctx)
	require.NoError(t, err)
	assert.True(t, second.PerformanceMetrics.CacheHit)
	assert.Equal(t, 1, fc.stores, "cache hit must not store again")

	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.CategoryScores, second.CategoryScores)
	assert.Equal(t, first.Industry, second.Industry)
}

func TestCacheSkippedWithoutURL(t *testing.T) {
	fc := newFakeCache()
	calc := New(config.Default(), WithCache(fc))

	_, err := calc.Calculate(context.Background(), fullPage(), Context{})
	require.NoError(t, err)
	assert.Zero(t, fc.gets)
	assert.Zero(t, fc.stores)
}

func TestIndustryProfileChangesWeights(t *testing.T) {
	calc := New(config.Default())

	news, err := calc.Calculate(context.Background(), fullPage(), Context{Industry: "news"})
	require.NoError(t, err)
	unknown, err := calc.Calculate(context.Background(), fullPage(), Context{Industry: "underwater-basket-weaving"})
	require.NoError(t, err)

	assert.Equal(t, "news", news.Industry)
	assert.Equal(t, "default", unknown.Industry, "unknown industry falls back to default")
	assert.Equal(t, 22, news.CategoryScores["content"].Weight)
	assert.Equal(t, 20, unknown.CategoryScores["content"].Weight)
}

func TestDifficultyMultiplier(t *testing.T) {
	cases := []struct {
		difficulty string
		volume     string
		want       float64
	}{
		{"", "", 1.0},
		{"low", "low", 1.0},
		{"low", "very-high", 1.1},
		{"medium", "", 1.1},
		{"medium", "high", 1.15},
		{"high", "low", 1.15},
		{"high", "very-high", 1.3},
		{"HIGH", "VERY-HIGH", 1.3},
		{"unknown", "high", 1.0},
	}

	for _, c := range cases {
		got := difficultyMultiplier(c.difficulty, c.volume)
		assert.InDelta(t, c.want, got, 0.0001, "%s/%s", c.difficulty, c.volume)
	}
}

func TestCompetitiveMultiplierRaisesScore(t *testing.T) {
	calc := New(config.Default())
	page := fullPage()
	// Hold content and technical below 100 so the boost has headroom.
	page.Content.WordCount = 500
	page.Technical.HasSchemaMarkup = false

	base, err := calc.Calculate(context.Background(), page, Context{})
	require.NoError(t, err)
	boosted, err := calc.Calculate(context.Background(), page, Context{
		KeywordDifficulty: "high",
		SearchVolume:      "very-high",
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, base.CompetitiveFactors.DifficultyMultiplier)
	assert.Equal(t, 1.3, boosted.CompetitiveFactors.DifficultyMultiplier)
	assert.Greater(t, boosted.OverallScore, base.OverallScore)
	assert.LessOrEqual(t, boosted.OverallScore, 100)
}

func TestBreakdownStatusBands(t *testing.T) {
	calc := New(config.Default())
	result, err := calc.Calculate(context.Background(), fullPage(), Context{})
	require.NoError(t, err)

	for name, b := range result.Breakdown {
		score := result.CategoryScores[name].Score
		var want string
		switch {
		case score >= 90:
			want = "excellent"
		case score >= 70:
			want = "good"
		case score >= 50:
			want = "needs-improvement"
		default:
			want = "poor"
		}
		assert.Equal(t, want, b.Status, name)
		assert.Equal(t, result.CategoryScores[name].Weight, b.WeightPercentage, name)
	}
}

func TestHeadingHierarchy(t *testing.T) {
	calc := New(config.Default())

	good := fullPage()
	skipped := fullPage()
	skipped.Headings = pagedata.Headings{
		H1: []string{"Only Title"},
		H3: []string{"Orphan Subsection"},
	}

	gr, err := calc.Calculate(context.Background(), good, Context{})
	require.NoError(t, err)
	sr, err := calc.Calculate(context.Background(), skipped, Context{})
	require.NoError(t, err)

	assert.Greater(t, gr.CategoryScores["headings"].Score, sr.CategoryScores["headings"].Score)
	assert.Contains(t, sr.CategoryScores["headings"].Issues, "H3 headings used without any H2")
}
