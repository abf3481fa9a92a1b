// Package textstat provides the text statistics primitives shared by the
// readability analyzer and the content quality assessor: sentence, word,
// syllable and character counting plus the derived averages the index
// formulas consume.
package textstat

import (
	"strings"
	"unicode"
)

// Counts holds the raw statistics for a block of text.
type Counts struct {
	Sentences           int     `json:"total_sentences"`
	Words               int     `json:"total_words"`
	Syllables           int     `json:"total_syllables"`
	Characters          int     `json:"total_characters"`
	Letters             int     `json:"total_letters"`
	ComplexWords        int     `json:"complex_words"`
	UniqueWords         int     `json:"unique_words"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	AvgSyllablesPerWord float64 `json:"avg_syllables_per_word"`
	AvgWordLength       float64 `json:"avg_word_length"`
}

// Analyze computes all counts for text in a single pass over its tokens.
// Empty input yields the zero value; a text with words but no sentence
// terminator is treated as one sentence so ratios stay defined.
func Analyze(text string) Counts {
	words := Words(text)
	c := Counts{
		Words:      len(words),
		Sentences:  CountSentences(text),
		Characters: len([]rune(strings.TrimSpace(text))),
	}

	if c.Words == 0 {
		c.Sentences = 0
		return c
	}
	if c.Sentences == 0 {
		c.Sentences = 1
	}

	seen := make(map[string]struct{}, len(words))
	letterTotal := 0
	for _, w := range words {
		syl := CountSyllables(w)
		c.Syllables += syl
		if syl >= 3 {
			c.ComplexWords++
		}
		letterTotal += len([]rune(w))
		seen[strings.ToLower(w)] = struct{}{}
	}
	c.Letters = letterTotal
	c.UniqueWords = len(seen)

	c.AvgWordsPerSentence = float64(c.Words) / float64(c.Sentences)
	c.AvgSyllablesPerWord = float64(c.Syllables) / float64(c.Words)
	c.AvgWordLength = float64(letterTotal) / float64(c.Words)
	return c
}

// Words tokenizes text on whitespace and strips surrounding punctuation.
// Tokens that contain no letters or digits are dropped.
func Words(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	return words
}

// CountSentences counts sentence boundaries marked by '.', '!' or '?'.
// Runs of terminators ("..", "?!") count once.
func CountSentences(text string) int {
	count := 0
	inTerminator := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				count++
				inTerminator = true
			}
		default:
			inTerminator = false
		}
	}
	return count
}

// Sentences splits text into sentences on '.', '!' and '?' boundaries,
// dropping empty segments.
func Sentences(text string) []string {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	return sentences
}

// CountSyllables estimates the syllable count of a single word using
// vowel-group counting: consecutive vowels count as one group and a silent
// trailing 'e' is subtracted. Every word counts at least one syllable.
func CountSyllables(word string) int {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return 0
	}

	groups := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			groups++
		}
		prevVowel = v
	}

	// Silent trailing e: "make", "code". The "le" ending keeps its vowel
	// group ("table", "candle").
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && groups > 1 {
		groups--
	}

	if groups < 1 {
		groups = 1
	}
	return groups
}

// CountPolysyllables returns the number of words with three or more
// syllables, the input to the SMOG and Gunning Fog formulas.
func CountPolysyllables(words []string) int {
	n := 0
	for _, w := range words {
		if CountSyllables(w) >= 3 {
			n++
		}
	}
	return n
}

// CountLetters counts letter and digit runes, the character base for the
// ARI and Coleman-Liau formulas.
func CountLetters(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
