// Package pagedata defines the typed page structure the analysis engine
// consumes. The external parser produces it; this package only validates it
// at the boundary so the scoring code can rely on required sections being
// present.
package pagedata

import "fmt"

// Page is the structured representation of a parsed HTML document.
type Page struct {
	Meta           Meta           `json:"meta"`
	Headings       Headings       `json:"headings"`
	Images         Images         `json:"images"`
	Links          Links          `json:"links"`
	Content        Content        `json:"content"`
	Technical      Technical      `json:"technical"`
	SocialMedia    SocialMedia    `json:"social_media"`
	StructuredData StructuredData `json:"structured_data"`
}

// Meta holds head-section signals with precomputed lengths.
type Meta struct {
	Title             string            `json:"title"`
	TitleLength       int               `json:"title_length"`
	Description       string            `json:"description"`
	DescriptionLength int               `json:"description_length"`
	Keywords          string            `json:"keywords"`
	Author            string            `json:"author"`
	Robots            string            `json:"robots"`
	Canonical         string            `json:"canonical"`
	Viewport          string            `json:"viewport"`
	OGTags            map[string]string `json:"og_tags,omitempty"`
	TwitterTags       map[string]string `json:"twitter_tags,omitempty"`
}

// Headings holds the ordered heading texts per level.
type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
	H4 []string `json:"h4"`
	H5 []string `json:"h5"`
	H6 []string `json:"h6"`
}

// Counts returns the number of headings at levels 1 through 6.
func (h Headings) Counts() [6]int {
	return [6]int{len(h.H1), len(h.H2), len(h.H3), len(h.H4), len(h.H5), len(h.H6)}
}

// Total returns the number of headings across all levels.
func (h Headings) Total() int {
	return len(h.H1) + len(h.H2) + len(h.H3) + len(h.H4) + len(h.H5) + len(h.H6)
}

// Image describes a single img element when detail is available.
type Image struct {
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	HasAlt   bool   `json:"has_alt"`
	HasTitle bool   `json:"has_title"`
}

// Images aggregates image signals.
type Images struct {
	TotalCount   int     `json:"total_count"`
	WithAltCount int     `json:"with_alt_count"`
	WithoutAlt   int     `json:"without_alt_count"`
	WithoutTitle int     `json:"without_title_count"`
	Details      []Image `json:"details,omitempty"`
}

// Link describes a single anchor when detail is available.
type Link struct {
	Href       string `json:"href"`
	Anchor     string `json:"anchor"`
	IsExternal bool   `json:"is_external"`
}

// Links aggregates anchor signals.
type Links struct {
	TotalCount  int    `json:"total_count"`
	Internal    int    `json:"internal_count"`
	External    int    `json:"external_count"`
	EmptyAnchor int    `json:"empty_anchor_count"`
	Details     []Link `json:"details,omitempty"`
}

// Content aggregates body-text signals.
type Content struct {
	WordCount       int     `json:"word_count"`
	ParagraphCount  int     `json:"paragraph_count"`
	TextHTMLRatio   float64 `json:"text_html_ratio"`
	ReadingTimeMins float64 `json:"reading_time_minutes"`
}

// Technical aggregates document-level technical signals.
type Technical struct {
	HasDoctype       bool `json:"has_doctype"`
	HasLangAttribute bool `json:"has_lang_attribute"`
	HasSSL           bool `json:"has_ssl"`
	HasSchemaMarkup  bool `json:"has_schema_markup"`
	HasOpenGraph     bool `json:"has_open_graph"`
	InlineStyles     int  `json:"inline_style_count"`
	InlineScripts    int  `json:"inline_script_count"`
}

// SocialMedia records which social tag groups are present.
type SocialMedia struct {
	OpenGraph   map[string]bool `json:"open_graph,omitempty"`
	TwitterCard map[string]bool `json:"twitter_card,omitempty"`
}

// StructuredData records which structured data formats are present.
type StructuredData struct {
	JSONLDCount  int  `json:"json_ld_count"`
	HasMicrodata bool `json:"has_microdata"`
	HasRDFa      bool `json:"has_rdfa"`
}

// InvalidInputError reports page data missing a required section. It is the
// only error class the analysis core raises; everything else degrades to
// neutral metrics.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid page data: %s", e.Reason)
}

// Validate checks the sections the score calculator cannot work without.
// A nil page or a page with an entirely empty meta section is rejected;
// everything else is scoreable (absent optional signals score as absent).
func Validate(p *Page) error {
	if p == nil {
		return &InvalidInputError{Reason: "page data is nil"}
	}
	if p.Meta.isZero() {
		return &InvalidInputError{Reason: "meta section is missing"}
	}
	return nil
}

func (m Meta) isZero() bool {
	return m.Title == "" && m.TitleLength == 0 &&
		m.Description == "" && m.DescriptionLength == 0 &&
		m.Keywords == "" && m.Author == "" && m.Robots == "" &&
		m.Canonical == "" && m.Viewport == "" &&
		m.OGTags == nil && m.TwitterTags == nil
}
