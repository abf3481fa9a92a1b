// Package pageparser converts raw HTML into the typed page structure the
// scoring and quality components consume. The production parser is an
// external collaborator; this adapter covers its interface so the API
// surface and tests can run end to end.
package pageparser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seoscope/backend/pagedata"
	"github.com/seoscope/backend/textstat"
)

// Average adult reading speed used for the reading time estimate.
const wordsPerMinute = 225.0

// Parse builds a pagedata.Page from html. baseURL determines the SSL flag
// and internal/external link classification. Malformed HTML degrades to an
// empty page rather than failing; the only error source is a reader
// failure, which goquery does not produce for strings.
func Parse(html, baseURL string) (*pagedata.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &pagedata.Page{}, err
	}

	base, _ := url.Parse(baseURL)

	page := &pagedata.Page{
		Meta:           parseMeta(doc),
		Headings:       parseHeadings(doc),
		Images:         parseImages(doc),
		Links:          parseLinks(doc, base),
		Content:        parseContent(doc, html),
		Technical:      parseTechnical(doc, html, base),
		SocialMedia:    parseSocialMedia(doc),
		StructuredData: parseStructuredData(doc),
	}
	return page, nil
}

func parseMeta(doc *goquery.Document) pagedata.Meta {
	m := pagedata.Meta{
		OGTags:      map[string]string{},
		TwitterTags: map[string]string{},
	}

	m.Title = strings.TrimSpace(doc.Find("title").First().Text())
	m.TitleLength = len(m.Title)
	m.Description, _ = doc.Find("meta[name='description']").Attr("content")
	m.DescriptionLength = len(m.Description)
	m.Keywords, _ = doc.Find("meta[name='keywords']").Attr("content")
	m.Author, _ = doc.Find("meta[name='author']").Attr("content")
	m.Robots, _ = doc.Find("meta[name='robots']").Attr("content")
	m.Canonical, _ = doc.Find("link[rel='canonical']").Attr("href")
	m.Viewport, _ = doc.Find("meta[name='viewport']").Attr("content")

	doc.Find("meta[property^='og:']").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if prop != "" && content != "" {
			m.OGTags[prop] = content
		}
	})
	doc.Find("meta[name^='twitter:']").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		if name != "" && content != "" {
			m.TwitterTags[name] = content
		}
	})
	return m
}

func parseHeadings(doc *goquery.Document) pagedata.Headings {
	collect := func(sel string) []string {
		var out []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			out = append(out, strings.TrimSpace(s.Text()))
		})
		return out
	}
	return pagedata.Headings{
		H1: collect("h1"), H2: collect("h2"), H3: collect("h3"),
		H4: collect("h4"), H5: collect("h5"), H6: collect("h6"),
	}
}

func parseImages(doc *goquery.Document) pagedata.Images {
	img := pagedata.Images{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		img.TotalCount++
		src, _ := s.Attr("src")
		alt, hasAlt := s.Attr("alt")
		_, hasTitle := s.Attr("title")

		if hasAlt && strings.TrimSpace(alt) != "" {
			img.WithAltCount++
		} else {
			img.WithoutAlt++
		}
		if !hasTitle {
			img.WithoutTitle++
		}
		img.Details = append(img.Details, pagedata.Image{
			Src:      src,
			Alt:      alt,
			HasAlt:   hasAlt && strings.TrimSpace(alt) != "",
			HasTitle: hasTitle,
		})
	})
	return img
}

func parseLinks(doc *goquery.Document, base *url.URL) pagedata.Links {
	links := pagedata.Links{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
			return
		}

		links.TotalCount++
		anchor := strings.TrimSpace(s.Text())
		if anchor == "" {
			// An image with alt text still counts as anchor content.
			if alt, ok := s.Find("img").Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
				links.EmptyAnchor++
			}
		}

		external := isExternal(href, base)
		if external {
			links.External++
		} else {
			links.Internal++
		}
		links.Details = append(links.Details, pagedata.Link{
			Href:       href,
			Anchor:     anchor,
			IsExternal: external,
		})
	})
	return links
}

func isExternal(href string, base *url.URL) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	if base == nil || base.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Hostname(), base.Hostname())
}

func parseContent(doc *goquery.Document, html string) pagedata.Content {
	body := doc.Find("body")
	text := strings.TrimSpace(body.Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}
	words := len(textstat.Words(text))

	content := pagedata.Content{
		WordCount:      words,
		ParagraphCount: doc.Find("p").Length(),
	}
	if len(html) > 0 {
		content.TextHTMLRatio = float64(len(text)) / float64(len(html))
	}
	if words > 0 {
		content.ReadingTimeMins = float64(words) / wordsPerMinute
	}
	return content
}

func parseTechnical(doc *goquery.Document, html string, base *url.URL) pagedata.Technical {
	t := pagedata.Technical{
		HasDoctype:    strings.Contains(strings.ToLower(html[:min(256, len(html))]), "<!doctype"),
		InlineStyles:  doc.Find("style").Length(),
		InlineScripts: doc.Find("script:not([src])").Length() - doc.Find("script[type='application/ld+json']").Length(),
	}
	if t.InlineScripts < 0 {
		t.InlineScripts = 0
	}
	if lang, ok := doc.Find("html").Attr("lang"); ok && lang != "" {
		t.HasLangAttribute = true
	}
	if base != nil && base.Scheme == "https" {
		t.HasSSL = true
	}
	sd := parseStructuredData(doc)
	t.HasSchemaMarkup = sd.JSONLDCount > 0 || sd.HasMicrodata || sd.HasRDFa
	t.HasOpenGraph = doc.Find("meta[property^='og:']").Length() > 0
	return t
}

func parseSocialMedia(doc *goquery.Document) pagedata.SocialMedia {
	sm := pagedata.SocialMedia{
		OpenGraph:   map[string]bool{},
		TwitterCard: map[string]bool{},
	}
	doc.Find("meta[property^='og:']").Each(func(_ int, s *goquery.Selection) {
		if prop, ok := s.Attr("property"); ok {
			sm.OpenGraph[prop] = true
		}
	})
	doc.Find("meta[name^='twitter:']").Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok {
			sm.TwitterCard[name] = true
		}
	})
	return sm
}

func parseStructuredData(doc *goquery.Document) pagedata.StructuredData {
	sd := pagedata.StructuredData{
		JSONLDCount: doc.Find("script[type='application/ld+json']").Length(),
	}
	sd.HasMicrodata = doc.Find("[itemscope], [itemtype]").Length() > 0
	sd.HasRDFa = doc.Find("[typeof], [vocab]").Length() > 0
	return sd
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
