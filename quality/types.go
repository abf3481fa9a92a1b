package quality

// Assessment is the complete content quality result for one page.
type Assessment struct {
	Dimensions          map[string]Dimension `json:"quality_dimensions"`
	OverallScore        float64              `json:"overall_score"`
	Recommendations     []Recommendation     `json:"recommendations"`
	ImprovementPriority []Priority           `json:"improvement_priority"`
	ContentMetrics      ContentMetrics       `json:"content_metrics"`
	Insights            []string             `json:"quality_insights"`
}

// Dimension is one scored quality dimension with its supporting detail.
type Dimension struct {
	Score   float64            `json:"score"`
	Details map[string]float64 `json:"details,omitempty"`
}

// Recommendation is an actionable quality improvement. Category always
// echoes the dimension name so callers can group by dimension.
type Recommendation struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
	Fix      string `json:"fix"`
}

// Priority ranks a dimension by how much fixing it would move the overall
// score.
type Priority struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Priority  string  `json:"priority"`
	Impact    string  `json:"impact"`
}

// ContentMetrics are raw counts extracted from the markup.
type ContentMetrics struct {
	WordCount      int `json:"word_count"`
	CharacterCount int `json:"character_count"`
	SentenceCount  int `json:"sentence_count"`
	ParagraphCount int `json:"paragraph_count"`
	ListCount      int `json:"list_count"`
	ImageCount     int `json:"image_count"`
	LinkCount      int `json:"link_count"`
}
