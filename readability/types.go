package readability

import "github.com/seoscope/backend/textstat"

// Result is the complete readability analysis for one text.
type Result struct {
	FleschReadingEase    FleschReadingEase  `json:"flesch_reading_ease"`
	FleschKincaidGrade   FleschKincaidGrade `json:"flesch_kincaid_grade"`
	AutomatedReadability IndexScore         `json:"automated_readability_index"`
	ColemanLiau          IndexScore         `json:"coleman_liau_index"`
	SMOG                 IndexScore         `json:"smog_index"`
	GunningFog           IndexScore         `json:"gunning_fog_index"`
	BasicMetrics         textstat.Counts    `json:"basic_metrics"`
	Structural           StructuralAnalysis `json:"structural_analysis"`
	Vocabulary           VocabularyAnalysis `json:"vocabulary_analysis"`
	Sentence             SentenceAnalysis   `json:"sentence_analysis"`
	Overall              OverallScore       `json:"overall_score"`
	ReadingLevel         string             `json:"reading_level"`
	TargetAudience       string             `json:"target_audience"`
	Recommendations      []Recommendation   `json:"recommendations"`
	Insights             []string           `json:"readability_insights"`
}

// FleschReadingEase is the 0-100 ease score with its qualitative levels.
type FleschReadingEase struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	SchoolLevel string  `json:"school_level"`
}

// FleschKincaidGrade is the US school grade estimate.
type FleschKincaidGrade struct {
	Grade float64 `json:"grade"`
	Level string  `json:"level"`
}

// IndexScore is a grade-level index (ARI, Coleman-Liau, SMOG, Gunning Fog).
type IndexScore struct {
	Score float64 `json:"score"`
	Grade float64 `json:"grade"`
	Level string  `json:"level"`
}

// StructuralAnalysis scores the HTML structure of the content.
type StructuralAnalysis struct {
	Score          float64 `json:"score"`
	HeadingCount   int     `json:"heading_count"`
	ListCount      int     `json:"list_count"`
	EmphasisCount  int     `json:"emphasis_count"`
	ParagraphCount int     `json:"paragraph_count"`
	HasHeadings    bool    `json:"has_headings"`
	HasLists       bool    `json:"has_lists"`
	HasEmphasis    bool    `json:"has_emphasis"`
	HTMLProvided   bool    `json:"html_provided"`
}

// VocabularyAnalysis scores word complexity and diversity.
type VocabularyAnalysis struct {
	Score            float64 `json:"score"`
	ComplexWordRatio float64 `json:"complex_word_ratio"`
	AvgWordLength    float64 `json:"avg_word_length"`
	DiversityRatio   float64 `json:"diversity_ratio"`
}

// SentenceAnalysis scores sentence length and complexity.
type SentenceAnalysis struct {
	Score                float64 `json:"score"`
	AvgSentenceLength    float64 `json:"avg_sentence_length"`
	ComplexSentenceRatio float64 `json:"complex_sentence_ratio"`
	LongestSentenceWords int     `json:"longest_sentence_words"`
}

// OverallScore is the weighted blend of the component scores.
type OverallScore struct {
	Overall    float64            `json:"overall"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights_used"`
}

// Recommendation is an actionable readability improvement.
type Recommendation struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
	Fix      string `json:"fix"`
}
