// Package readability computes six standard readability indices plus
// structural, vocabulary and sentence sub-scores for a block of content,
// blended into a single overall readability score with recommendations.
package readability

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seoscope/backend/config"
	"github.com/seoscope/backend/textstat"
)

// Words in a sentence above this mark it as complex.
const complexSentenceWords = 20

// Analyzer computes readability results. It is stateless and safe for
// concurrent use.
type Analyzer struct {
	weights config.ReadabilityWeights
	logger  *slog.Logger
}

// New creates an Analyzer with the given blend weights.
func New(weights config.ReadabilityWeights, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{weights: weights, logger: logger}
}

// Analyze computes the full readability result for text. When html is
// non-empty it is used for the structural analysis; otherwise the
// structural score defaults to a neutral midpoint. Analyze never fails:
// empty or degenerate input produces zero metrics and an explanatory
// insight.
func (a *Analyzer) Analyze(text, html string) *Result {
	counts := textstat.Analyze(text)

	r := &Result{BasicMetrics: counts}

	if counts.Words == 0 {
		r.Structural = a.analyzeStructure(html, counts)
		r.Vocabulary = VocabularyAnalysis{}
		r.Sentence = SentenceAnalysis{}
		r.FleschReadingEase = FleschReadingEase{Level: "Unknown", SchoolLevel: "Unknown"}
		r.FleschKincaidGrade = FleschKincaidGrade{Level: "Unknown"}
		r.ReadingLevel = "Unknown"
		r.TargetAudience = "Unknown"
		r.Overall = a.blend(0, r.Structural.Score, 0, 0)
		r.Insights = []string{"Insufficient content to compute readability metrics."}
		return r
	}

	wps := counts.AvgWordsPerSentence
	spw := counts.AvgSyllablesPerWord

	flesch := 206.835 - 1.015*wps - 84.6*spw
	r.FleschReadingEase = FleschReadingEase{
		Score:       clamp(flesch, 0, 100),
		Level:       fleschLevel(flesch),
		SchoolLevel: fleschSchoolLevel(flesch),
	}

	fk := 0.39*wps + 11.8*spw - 15.59
	if fk < 0 {
		fk = 0
	}
	fk = round1(fk)
	r.FleschKincaidGrade = FleschKincaidGrade{Grade: fk, Level: gradeBand(fk)}

	r.AutomatedReadability = a.automatedReadability(text, counts)
	r.ColemanLiau = a.colemanLiau(text, counts)
	r.SMOG = a.smog(text, counts)
	r.GunningFog = a.gunningFog(counts)

	r.Structural = a.analyzeStructure(html, counts)
	r.Vocabulary = a.analyzeVocabulary(counts)
	r.Sentence = a.analyzeSentences(text, counts)

	r.Overall = a.blend(r.FleschReadingEase.Score, r.Structural.Score,
		r.Vocabulary.Score, r.Sentence.Score)
	r.ReadingLevel = readingLevel(fk)
	r.TargetAudience = targetAudience(fk)
	r.Recommendations = a.recommend(r)
	r.Insights = a.insights(r)
	return r
}

func (a *Analyzer) automatedReadability(text string, c textstat.Counts) IndexScore {
	letters := textstat.CountLetters(text)
	ari := 4.71*(float64(letters)/float64(c.Words)) +
		0.5*float64(c.Words)/float64(c.Sentences) - 21.43
	if ari < 0 {
		ari = 0
	}
	ari = round1(ari)
	return IndexScore{Score: ari, Grade: ari, Level: gradeBand(ari)}
}

func (a *Analyzer) colemanLiau(text string, c textstat.Counts) IndexScore {
	letters := textstat.CountLetters(text)
	l := float64(letters) / float64(c.Words) * 100
	s := float64(c.Sentences) / float64(c.Words) * 100
	cl := 0.0588*l - 0.296*s - 15.8
	if cl < 0 {
		cl = 0
	}
	cl = round1(cl)
	return IndexScore{Score: cl, Grade: cl, Level: gradeBand(cl)}
}

func (a *Analyzer) smog(text string, c textstat.Counts) IndexScore {
	poly := textstat.CountPolysyllables(textstat.Words(text))
	smog := 1.0430*math.Sqrt(float64(poly)*30.0/float64(c.Sentences)) + 3.1291
	smog = round1(smog)
	return IndexScore{Score: smog, Grade: smog, Level: gradeBand(smog)}
}

func (a *Analyzer) gunningFog(c textstat.Counts) IndexScore {
	fog := 0.4 * (c.AvgWordsPerSentence + 100.0*float64(c.ComplexWords)/float64(c.Words))
	fog = round1(fog)
	return IndexScore{Score: fog, Grade: fog, Level: gradeBand(fog)}
}

// analyzeStructure parses html and rewards headings, lists, emphasis and
// short paragraphs. Without html the score is a neutral 50.
func (a *Analyzer) analyzeStructure(html string, c textstat.Counts) StructuralAnalysis {
	if strings.TrimSpace(html) == "" {
		return StructuralAnalysis{Score: 50}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		a.logger.Warn("structural analysis degraded, unparseable html", "error", err)
		return StructuralAnalysis{Score: 50, HTMLProvided: true}
	}

	s := StructuralAnalysis{HTMLProvided: true}
	s.HeadingCount = doc.Find("h1, h2, h3, h4, h5, h6").Length()
	s.ListCount = doc.Find("ul, ol").Length()
	s.EmphasisCount = doc.Find("b, strong, i, em").Length()
	s.ParagraphCount = doc.Find("p").Length()
	s.HasHeadings = s.HeadingCount > 0
	s.HasLists = s.ListCount > 0
	s.HasEmphasis = s.EmphasisCount > 0

	score := 20.0
	if s.HasHeadings {
		score += 25
		if s.HeadingCount >= 3 {
			score += 10
		}
	}
	if s.HasLists {
		score += 20
	}
	if s.HasEmphasis {
		score += 10
	}
	if s.ParagraphCount > 0 {
		avgParagraphWords := float64(c.Words) / float64(s.ParagraphCount)
		if avgParagraphWords <= 100 {
			score += 15
		} else if avgParagraphWords <= 150 {
			score += 8
		}
	}
	s.Score = clamp(score, 0, 100)
	return s
}

func (a *Analyzer) analyzeVocabulary(c textstat.Counts) VocabularyAnalysis {
	v := VocabularyAnalysis{
		ComplexWordRatio: float64(c.ComplexWords) / float64(c.Words),
		AvgWordLength:    c.AvgWordLength,
		DiversityRatio:   float64(c.UniqueWords) / float64(c.Words),
	}

	score := 100.0
	switch {
	case v.ComplexWordRatio > 0.30:
		score -= 40
	case v.ComplexWordRatio > 0.20:
		score -= 25
	case v.ComplexWordRatio > 0.10:
		score -= 10
	}
	switch {
	case v.AvgWordLength > 7:
		score -= 20
	case v.AvgWordLength > 6:
		score -= 10
	}
	switch {
	case v.DiversityRatio < 0.30:
		score -= 20
	case v.DiversityRatio < 0.50:
		score -= 10
	}
	v.Score = clamp(score, 0, 100)
	return v
}

func (a *Analyzer) analyzeSentences(text string, c textstat.Counts) SentenceAnalysis {
	s := SentenceAnalysis{AvgSentenceLength: c.AvgWordsPerSentence}

	sentences := textstat.Sentences(text)
	complexCount := 0
	for _, sentence := range sentences {
		n := len(textstat.Words(sentence))
		if n > s.LongestSentenceWords {
			s.LongestSentenceWords = n
		}
		if n > complexSentenceWords {
			complexCount++
		}
	}
	if len(sentences) > 0 {
		s.ComplexSentenceRatio = float64(complexCount) / float64(len(sentences))
	}

	score := 100.0
	switch {
	case s.AvgSentenceLength > 30:
		score -= 50
	case s.AvgSentenceLength > 25:
		score -= 35
	case s.AvgSentenceLength > 20:
		score -= 20
	case s.AvgSentenceLength > 15:
		score -= 10
	}
	switch {
	case s.ComplexSentenceRatio > 0.50:
		score -= 25
	case s.ComplexSentenceRatio > 0.25:
		score -= 10
	}
	s.Score = clamp(score, 0, 100)
	return s
}

func (a *Analyzer) blend(flesch, structural, vocabulary, sentence float64) OverallScore {
	w := a.weights
	overall := flesch*w.FleschEase + structural*w.Structural +
		vocabulary*w.Vocabulary + sentence*w.Sentence
	return OverallScore{
		Overall: round1(clamp(overall, 0, 100)),
		Components: map[string]float64{
			"flesch_ease": flesch,
			"structural":  structural,
			"vocabulary":  vocabulary,
			"sentence":    sentence,
		},
		Weights: map[string]float64{
			"flesch_ease": w.FleschEase,
			"structural":  w.Structural,
			"vocabulary":  w.Vocabulary,
			"sentence":    w.Sentence,
		},
	}
}

func (a *Analyzer) recommend(r *Result) []Recommendation {
	var recs []Recommendation

	if r.Sentence.Score < 70 {
		recs = append(recs, Recommendation{
			Type:     "warning",
			Category: "sentence_length",
			Message: fmt.Sprintf("Average sentence length is %.1f words, which slows readers down",
				r.Sentence.AvgSentenceLength),
			Impact: "high",
			Fix:    "Break long sentences into shorter ones of 15-20 words",
		})
	}
	if r.Vocabulary.Score < 70 {
		recs = append(recs, Recommendation{
			Type:     "suggestion",
			Category: "vocabulary",
			Message: fmt.Sprintf("%.0f%% of words have three or more syllables",
				r.Vocabulary.ComplexWordRatio*100),
			Impact: "medium",
			Fix:    "Replace complex words with simpler alternatives where possible",
		})
	}
	if r.Structural.HTMLProvided && r.Structural.Score < 60 {
		recs = append(recs, Recommendation{
			Type:     "suggestion",
			Category: "structure",
			Message:  "Content lacks structural elements that aid scanning",
			Impact:   "medium",
			Fix:      "Add headings, bullet lists and short paragraphs to break up the text",
		})
	}
	if r.FleschReadingEase.Score < 50 {
		recs = append(recs, Recommendation{
			Type:     "warning",
			Category: "reading_ease",
			Message: fmt.Sprintf("Flesch reading ease is %.0f (%s)",
				r.FleschReadingEase.Score, r.FleschReadingEase.Level),
			Impact: "high",
			Fix:    "Shorten sentences and prefer common words to raise reading ease above 60",
		})
	}
	return recs
}

func (a *Analyzer) insights(r *Result) []string {
	var insights []string

	insights = append(insights, fmt.Sprintf(
		"Content reads at a %s level, best suited for %s.",
		strings.ToLower(r.ReadingLevel), strings.ToLower(r.TargetAudience)))

	lowest := "flesch_ease"
	lowestScore := r.FleschReadingEase.Score
	for name, score := range r.Overall.Components {
		if score < lowestScore {
			lowest, lowestScore = name, score
		}
	}
	switch lowest {
	case "sentence":
		insights = append(insights, fmt.Sprintf(
			"Sentence length is the weakest factor: sentences average %.1f words.",
			r.Sentence.AvgSentenceLength))
	case "vocabulary":
		insights = append(insights, fmt.Sprintf(
			"Vocabulary complexity is the weakest factor: %.0f%% of words are complex.",
			r.Vocabulary.ComplexWordRatio*100))
	case "structural":
		insights = append(insights, "Document structure is the weakest factor: more headings and lists would help.")
	default:
		insights = append(insights, fmt.Sprintf(
			"Overall reading ease of %.0f is the main drag on readability.",
			r.FleschReadingEase.Score))
	}

	if r.Overall.Overall >= 80 {
		insights = append(insights, "Readability is strong overall; maintain the current writing style.")
	}
	return insights
}

func fleschLevel(score float64) string {
	switch {
	case score >= 90:
		return "Very Easy"
	case score >= 80:
		return "Easy"
	case score >= 70:
		return "Fairly Easy"
	case score >= 60:
		return "Standard"
	case score >= 50:
		return "Fairly Difficult"
	case score >= 30:
		return "Difficult"
	default:
		return "Very Confusing"
	}
}

func fleschSchoolLevel(score float64) string {
	switch {
	case score >= 90:
		return "5th grade"
	case score >= 80:
		return "6th grade"
	case score >= 70:
		return "7th grade"
	case score >= 60:
		return "8th-9th grade"
	case score >= 50:
		return "10th-12th grade"
	case score >= 30:
		return "College"
	default:
		return "College graduate"
	}
}

func gradeBand(grade float64) string {
	switch {
	case grade < 6:
		return "Elementary"
	case grade < 9:
		return "Middle School"
	case grade < 13:
		return "High School"
	case grade < 16:
		return "College"
	default:
		return "Graduate"
	}
}

func readingLevel(fk float64) string {
	switch {
	case fk < 6:
		return "Easy"
	case fk < 9:
		return "Moderate"
	case fk < 13:
		return "Challenging"
	case fk <= 16:
		return "Difficult"
	default:
		return "Very Difficult"
	}
}

func targetAudience(fk float64) string {
	switch {
	case fk < 6:
		return "Elementary school students"
	case fk < 9:
		return "Middle school students"
	case fk < 13:
		return "High school students"
	case fk <= 16:
		return "College students"
	default:
		return "University graduates"
	}
}

func clamp(v, lo, hi float64) float64 {
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
