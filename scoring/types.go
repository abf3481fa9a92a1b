package scoring

import (
	"time"

	"github.com/seoscope/backend/config"
)

// Version tags every result and every cache entry; bump it when category
// rules or weights change so stale cache entries stop being served.
const Version = "2.1.0"

// Method names the scoring algorithm recorded on results.
const Method = "weighted_category"

// Context is the optional calculation context.
type Context struct {
	// URL is the cache key material; without it results are not cached.
	URL string `json:"url,omitempty"`

	// Industry selects the weight profile; unknown values fall back to
	// the default profile.
	Industry string `json:"industry,omitempty"`

	// PrimaryKeyword, when set, is rewarded in the title category.
	PrimaryKeyword string `json:"primary_keyword,omitempty"`

	// KeywordDifficulty and SearchVolume resolve the competitive
	// difficulty multiplier: "low", "medium", "high" ("very-high" for
	// volume).
	KeywordDifficulty string `json:"keyword_difficulty,omitempty"`
	SearchVolume      string `json:"search_volume,omitempty"`
	CompetitorCount   int    `json:"competitor_count,omitempty"`

	// ContentKind and ExtendedTTL pass through to the cache layer.
	ContentKind string `json:"content_kind,omitempty"`
	ExtendedTTL bool   `json:"extended_ttl,omitempty"`

	// DisableCache bypasses the cache entirely.
	DisableCache bool `json:"disable_cache,omitempty"`
}

// Result is the final weighted SEO score for one page.
type Result struct {
	OverallScore       int                      `json:"overall_score"`
	Grade              string                   `json:"grade"`
	CategoryScores     map[string]CategoryScore `json:"category_scores"`
	Breakdown          map[string]Breakdown     `json:"breakdown"`
	WeightsUsed        config.Weights           `json:"weights_used"`
	CompetitiveFactors CompetitiveFactors       `json:"competitive_factors"`
	PerformanceMetrics PerformanceMetrics       `json:"performance_metrics"`
	ScoringVersion     string                   `json:"scoring_version"`
	ScoringMethod      string                   `json:"scoring_method"`
	Industry           string                   `json:"industry"`
	CalculatedAt       time.Time                `json:"calculated_at"`
}

// CategoryScore is one category's 0-100 score with its findings.
type CategoryScore struct {
	Score           float64            `json:"score"`
	MaxScore        int                `json:"max_score"`
	Weight          int                `json:"weight"`
	Issues          []string           `json:"issues"`
	Recommendations []string           `json:"recommendations"`
	Metrics         map[string]float64 `json:"metrics"`
}

// Breakdown shows how a category contributed to the overall score.
type Breakdown struct {
	WeightPercentage      int     `json:"weight_percentage"`
	ContributionToOverall float64 `json:"contribution_to_overall"`
	Status                string  `json:"status"`
}

// CompetitiveFactors echoes the competitive context plus the resolved
// multiplier.
type CompetitiveFactors struct {
	KeywordDifficulty    string  `json:"keyword_difficulty,omitempty"`
	SearchVolume         string  `json:"search_volume,omitempty"`
	CompetitorCount      int     `json:"competitor_count,omitempty"`
	DifficultyMultiplier float64 `json:"difficulty_multiplier"`
}

// PerformanceMetrics records calculation telemetry.
type PerformanceMetrics struct {
	DurationMillis   float64 `json:"duration_ms"`
	MemoryDeltaBytes int64   `json:"memory_delta_bytes"`
	CacheHit         bool    `json:"cache_hit"`
}
