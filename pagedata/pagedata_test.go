package pagedata

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		page    *Page
		wantErr bool
	}{
		{"nil page", nil, true},
		{"empty meta", &Page{}, true},
		{"title only", &Page{Meta: Meta{Title: "t"}}, false},
		{"description only", &Page{Meta: Meta{Description: "d"}}, false},
		{"empty og map counts as present", &Page{Meta: Meta{OGTags: map[string]string{}}}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Validate(c.page)
			if c.wantErr {
				var invalid *InvalidInputError
				if !errors.As(err, &invalid) {
					t.Errorf("want InvalidInputError, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestHeadingCounts(t *testing.T) {
	h := Headings{
		H1: []string{"a"},
		H2: []string{"b", "c"},
		H4: []string{"d"},
	}
	counts := h.Counts()
	want := [6]int{1, 2, 0, 1, 0, 0}
	if counts != want {
		t.Errorf("Counts() = %v, want %v", counts, want)
	}
	if h.Total() != 4 {
		t.Errorf("Total() = %d, want 4", h.Total())
	}
}
