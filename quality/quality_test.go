package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoscope/backend/config"
	"github.com/seoscope/backend/pagedata"
	"github.com/seoscope/backend/readability"
)

func newTestAssessor() *Assessor {
	cfg := config.Default()
	ra := readability.New(cfg.ReadabilityWeights, nil)
	return New(cfg.QualityWeights, ra, nil)
}

const richHTML = `<!DOCTYPE html>
<html lang="en"><head><title>Complete Coffee Brewing Guide</title></head>
<body>
<h1>Coffee Brewing Guide</h1>
<p>Brewing great coffee at home starts with fresh beans and clean water.
Grind size shapes extraction more than most people expect.</p>
<h2>Grind and Water</h2>
<p>A coarse grind suits immersion methods while a fine grind favors espresso.
Water near ninety six degrees pulls balanced flavor from the grounds.</p>
<ul><li>Weigh both coffee and water.</li><li>Keep each cup consistent.</li></ul>
<h2>Dialing In</h2>
<p>Small changes in ratio move the taste between sour and bitter. Practice
with one variable at a time and record the results in your brewing guide.</p>
<blockquote>Fresh beans beat expensive gear.</blockquote>
</body></html>`

const poorHTML = `<html><body><p>Buy now. Buy now. Buy now.</p></body></html>`

func richPage() *pagedata.Page {
	return &pagedata.Page{
		Meta: pagedata.Meta{
			Title:       "Complete Coffee Brewing Guide",
			TitleLength: 28,
			Description: "How to brew better coffee at home with simple technique changes.",
			Keywords:    "coffee, brewing",
			Author:      "Test Author",
			Canonical:   "https://example.com/coffee-guide",
			Viewport:    "width=device-width, initial-scale=1",
		},
		Headings: pagedata.Headings{
			H1: []string{"Coffee Brewing Guide"},
			H2: []string{"Grind and Water", "Dialing In"},
		},
		Images: pagedata.Images{TotalCount: 3, WithAltCount: 3},
		Links:  pagedata.Links{TotalCount: 6, Internal: 4, External: 2},
		Content: pagedata.Content{
			WordCount:       850,
			ParagraphCount:  3,
			TextHTMLRatio:   0.35,
			ReadingTimeMins: 4,
		},
		Technical: pagedata.Technical{
			HasDoctype:       true,
			HasLangAttribute: true,
			HasSSL:           true,
			HasSchemaMarkup:  true,
			HasOpenGraph:     true,
		},
	}
}

func poorPage() *pagedata.Page {
	return &pagedata.Page{
		Meta: pagedata.Meta{Title: "x", TitleLength: 1},
	}
}

func TestRichPageOutscoresPoorPage(t *testing.T) {
	a := newTestAssessor()

	rich := a.Assess(richHTML, "https://example.com/coffee-guide", richPage())
	poor := a.Assess(poorHTML, "http://example.com/thin", poorPage())

	assert.Greater(t, rich.OverallScore, poor.OverallScore)
	for _, dim := range []string{"structure", "completeness", "technical_quality", "user_experience"} {
		assert.Greater(t, rich.Dimensions[dim].Score, poor.Dimensions[dim].Score, dim)
	}
}

func TestAllDimensionsPresentAndBounded(t *testing.T) {
	a := newTestAssessor()
	result := a.Assess(richHTML, "https://example.com/coffee-guide", richPage())

	want := []string{
		"readability", "structure", "completeness", "engagement",
		"originality", "relevance", "technical_quality", "user_experience",
	}
	require.Len(t, result.Dimensions, len(want))
	for _, name := range want {
		d, ok := result.Dimensions[name]
		require.True(t, ok, "missing dimension %s", name)
		assert.GreaterOrEqual(t, d.Score, 0.0, name)
		assert.LessOrEqual(t, d.Score, 100.0, name)
	}
	assert.GreaterOrEqual(t, result.OverallScore, 0.0)
	assert.LessOrEqual(t, result.OverallScore, 100.0)
}

func TestRecommendationCategoryEchoesDimension(t *testing.T) {
	a := newTestAssessor()
	result := a.Assess(poorHTML, "http://example.com/thin", poorPage())

	require.NotEmpty(t, result.Recommendations)
	for _, rec := range result.Recommendations {
		d, ok := result.Dimensions[rec.Category]
		require.True(t, ok, "recommendation category %q is not a dimension", rec.Category)
		assert.Less(t, d.Score, 70.0, rec.Category)
		if d.Score < 40 {
			assert.Equal(t, "high", rec.Impact, rec.Category)
		}
	}
}

func TestImprovementPrioritySortedWorstFirst(t *testing.T) {
	a := newTestAssessor()
	result := a.Assess(poorHTML, "http://example.com/thin", poorPage())

	require.Len(t, result.ImprovementPriority, 8)
	for i := 1; i < len(result.ImprovementPriority); i++ {
		assert.LessOrEqual(t,
			result.ImprovementPriority[i-1].Score,
			result.ImprovementPriority[i].Score)
	}
	for _, p := range result.ImprovementPriority {
		switch {
		case p.Score < 40:
			assert.Equal(t, "high", p.Priority, p.Dimension)
		case p.Score < 70:
			assert.Equal(t, "medium", p.Priority, p.Dimension)
		default:
			assert.Equal(t, "low", p.Priority, p.Dimension)
		}
	}
}

func TestNeutralScoresOnEmptyInput(t *testing.T) {
	a := newTestAssessor()
	result := a.Assess("", "", nil)

	require.Len(t, result.Dimensions, 8)
	assert.Equal(t, float64(neutralScore), result.Dimensions["relevance"].Score)
	assert.Equal(t, float64(neutralScore), result.Dimensions["engagement"].Score)
	assert.Equal(t, float64(neutralScore), result.Dimensions["originality"].Score)
	assert.GreaterOrEqual(t, len(result.Insights), 3)
}

func TestDuplicatedContentScoresLowOriginality(t *testing.T) {
	a := newTestAssessor()

	repeated := a.Assess(poorHTML, "http://example.com/thin", poorPage())
	varied := a.Assess(richHTML, "https://example.com/coffee-guide", richPage())

	assert.Greater(t,
		varied.Dimensions["originality"].Score,
		repeated.Dimensions["originality"].Score)
	assert.Greater(t,
		repeated.Dimensions["originality"].Details["duplicate_sentence_ratio"], 0.0)
}

func TestContentMetricsCountMarkup(t *testing.T) {
	a := newTestAssessor()
	result := a.Assess(richHTML, "https://example.com/coffee-guide", richPage())

	m := result.ContentMetrics
	assert.Equal(t, 3, m.ParagraphCount)
	assert.Equal(t, 1, m.ListCount)
	assert.Greater(t, m.WordCount, 50)
	assert.Greater(t, m.SentenceCount, 5)
}
