package textstat

import "testing"

func TestCountSentences(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Hello world", 0},
		{"Hello world.", 1},
		{"One. Two! Three?", 3},
		{"Wait... what?!", 2},
	}

	for _, c := range cases {
		if got := CountSentences(c.text); got != c.want {
			t.Errorf("CountSentences(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestWords(t *testing.T) {
	words := Words("The quick, brown fox -- jumped!")
	want := []string{"The", "quick", "brown", "fox", "jumped"}
	if len(words) != len(want) {
		t.Fatalf("Words() returned %d tokens, want %d: %v", len(words), len(want), words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("Words()[%d] = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestCountSyllables(t *testing.T) {
	cases := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"table", 2},
		{"make", 1},
		{"beautiful", 3},
		{"university", 5},
		{"a", 1},
		{"rhythm", 1},
		{"", 0},
	}

	for _, c := range cases {
		if got := CountSyllables(c.word); got != c.want {
			t.Errorf("CountSyllables(%q) = %d, want %d", c.word, got, c.want)
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	c := Analyze("")
	if c.Words != 0 || c.Sentences != 0 || c.Syllables != 0 {
		t.Errorf("Analyze(\"\") = %+v, want zero counts", c)
	}
}

func TestAnalyzeNoTerminator(t *testing.T) {
	c := Analyze("just some words with no period")
	if c.Sentences != 1 {
		t.Errorf("text without terminator should count as one sentence, got %d", c.Sentences)
	}
	if c.Words != 6 {
		t.Errorf("got %d words, want 6", c.Words)
	}
}

func TestAnalyzeAverages(t *testing.T) {
	c := Analyze("The cat sat. The dog ran.")
	if c.Sentences != 2 {
		t.Fatalf("got %d sentences, want 2", c.Sentences)
	}
	if c.Words != 6 {
		t.Fatalf("got %d words, want 6", c.Words)
	}
	if c.AvgWordsPerSentence != 3 {
		t.Errorf("AvgWordsPerSentence = %f, want 3", c.AvgWordsPerSentence)
	}
	if c.AvgSyllablesPerWord != 1 {
		t.Errorf("AvgSyllablesPerWord = %f, want 1", c.AvgSyllablesPerWord)
	}
	// "The" repeats twice, case-insensitively.
	if c.UniqueWords != 5 {
		t.Errorf("UniqueWords = %d, want 5", c.UniqueWords)
	}
}

func TestCountPolysyllables(t *testing.T) {
	words := []string{"cat", "beautiful", "university", "dog"}
	if got := CountPolysyllables(words); got != 2 {
		t.Errorf("CountPolysyllables = %d, want 2", got)
	}
}
