// Package config holds every weight table and threshold the analysis engine
// uses: industry weight profiles for the score calculator, dimension weights
// for the quality assessor, component weights for the readability blend and
// the grade bands. Defaults are defined in code; a YAML file can override
// any profile so weights are tunable without code changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category names used by the score calculator, in reporting order.
var Categories = []string{
	"title", "meta_description", "headings", "content", "images",
	"links", "technical", "social_media", "structured_data",
}

// Dimensions are the quality assessor's fixed dimension names.
var Dimensions = []string{
	"readability", "structure", "completeness", "engagement",
	"originality", "relevance", "technical_quality", "user_experience",
}

// Weights maps score categories to percentage weights. Each profile must
// sum to 100.
type Weights map[string]int

// Config is the full engine configuration.
type Config struct {
	// Industries maps an industry name to its weight profile. The
	// "default" profile is used when no industry matches.
	Industries map[string]Weights `yaml:"industries"`

	// QualityWeights maps quality dimensions to fractional weights
	// summing to 1.0.
	QualityWeights map[string]float64 `yaml:"quality_weights"`

	// ReadabilityWeights blends the readability component scores,
	// summing to 1.0.
	ReadabilityWeights ReadabilityWeights `yaml:"readability_weights"`

	// GradeBands maps minimum overall scores to letter grades, highest
	// first. Anything below the last band is an F.
	GradeBands []GradeBand `yaml:"grade_bands"`
}

// ReadabilityWeights holds the blend weights for the readability overall
// score.
type ReadabilityWeights struct {
	FleschEase float64 `yaml:"flesch_ease"`
	Structural float64 `yaml:"structural"`
	Vocabulary float64 `yaml:"vocabulary"`
	Sentence   float64 `yaml:"sentence"`
}

// GradeBand maps a minimum score to a letter grade.
type GradeBand struct {
	Min   int    `yaml:"min"`
	Grade string `yaml:"grade"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Industries: map[string]Weights{
			"default": {
				"title": 15, "meta_description": 10, "headings": 10,
				"content": 20, "images": 10, "links": 10,
				"technical": 15, "social_media": 5, "structured_data": 5,
			},
			"ecommerce": {
				"title": 15, "meta_description": 10, "headings": 8,
				"content": 15, "images": 15, "links": 10,
				"technical": 15, "social_media": 5, "structured_data": 7,
			},
			"news": {
				"title": 18, "meta_description": 12, "headings": 12,
				"content": 22, "images": 8, "links": 8,
				"technical": 10, "social_media": 6, "structured_data": 4,
			},
			"blog": {
				"title": 15, "meta_description": 10, "headings": 12,
				"content": 25, "images": 8, "links": 10,
				"technical": 10, "social_media": 6, "structured_data": 4,
			},
			"corporate": {
				"title": 14, "meta_description": 10, "headings": 10,
				"content": 18, "images": 8, "links": 10,
				"technical": 20, "social_media": 4, "structured_data": 6,
			},
		},
		QualityWeights: map[string]float64{
			"readability":       0.20,
			"structure":         0.15,
			"completeness":      0.15,
			"engagement":        0.10,
			"originality":       0.10,
			"relevance":         0.10,
			"technical_quality": 0.10,
			"user_experience":   0.10,
		},
		ReadabilityWeights: ReadabilityWeights{
			FleschEase: 0.35,
			Structural: 0.25,
			Vocabulary: 0.20,
			Sentence:   0.20,
		},
		GradeBands: []GradeBand{
			{Min: 90, Grade: "A"},
			{Min: 80, Grade: "B"},
			{Min: 70, Grade: "C"},
			{Min: 60, Grade: "D"},
		},
	}
}

// Load returns the default configuration merged with the YAML file at path.
// An empty path returns the defaults unchanged. Profiles in the file replace
// the built-in profile of the same name.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	for name, w := range override.Industries {
		cfg.Industries[name] = w
	}
	if len(override.QualityWeights) > 0 {
		cfg.QualityWeights = override.QualityWeights
	}
	if override.ReadabilityWeights != (ReadabilityWeights{}) {
		cfg.ReadabilityWeights = override.ReadabilityWeights
	}
	if len(override.GradeBands) > 0 {
		cfg.GradeBands = override.GradeBands
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every profile sums to its required total.
func (c *Config) Validate() error {
	for name, w := range c.Industries {
		total := 0
		for _, cat := range Categories {
			pct, ok := w[cat]
			if !ok {
				return fmt.Errorf("industry %q is missing category %q", name, cat)
			}
			total += pct
		}
		if total != 100 {
			return fmt.Errorf("industry %q weights sum to %d, want 100", name, total)
		}
	}

	sum := 0.0
	for _, d := range Dimensions {
		w, ok := c.QualityWeights[d]
		if !ok {
			return fmt.Errorf("quality weights missing dimension %q", d)
		}
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("quality weights sum to %.3f, want 1.0", sum)
	}

	rw := c.ReadabilityWeights
	blend := rw.FleschEase + rw.Structural + rw.Vocabulary + rw.Sentence
	if blend < 0.999 || blend > 1.001 {
		return fmt.Errorf("readability weights sum to %.3f, want 1.0", blend)
	}
	return nil
}

// WeightsFor resolves the weight profile for an industry, falling back to
// the default profile.
func (c *Config) WeightsFor(industry string) (Weights, string) {
	if w, ok := c.Industries[industry]; ok {
		return w, industry
	}
	return c.Industries["default"], "default"
}

// GradeFor maps an overall score to its letter grade.
func (c *Config) GradeFor(score int) string {
	for _, b := range c.GradeBands {
		if score >= b.Min {
			return b.Grade
		}
	}
	return "F"
}
