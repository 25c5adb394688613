// Package extract pulls the body text out of article pages using
// externally supplied CSS selectors.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// nonContentSelectors lists elements removed from matches before their text
// is read.
const nonContentSelectors = "script, style, noscript, iframe, figure figcaption"

// Extraction is the result of applying selectors to an article page.
type Extraction struct {
	// Text holds the matched elements' text, one element per line.
	Text string
	// Selector is the rule that produced Text, empty on a miss.
	Selector string
	// Elements is the number of non-empty elements joined into Text.
	Elements int
}

// Miss reports whether no selector matched any text.
func (e Extraction) Miss() bool {
	return e.Elements == 0
}

// Extract parses markup and applies selectors in order. The first selector
// whose matches contain any text wins; each matched element's whitespace is
// collapsed and elements are joined with a single newline. A page where no
// selector matches yields an empty Extraction, not an error. The error is
// reserved for markup that cannot be parsed or an invalid selector.
func Extract(markup []byte, selectors []string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return ExtractDocument(doc, selectors)
}

// ExtractDocument applies selectors to an already parsed document. Matched
// elements are modified in place.
func ExtractDocument(doc *goquery.Document, selectors []string) (Extraction, error) {
	for _, selector := range selectors {
		// goquery treats a selector it cannot compile as matching nothing
		matcher, err := cascadia.Compile(selector)
		if err != nil {
			return Extraction{}, fmt.Errorf("invalid selector %q: %w", selector, err)
		}

		var parts []string
		doc.FindMatcher(matcher).Each(func(_ int, s *goquery.Selection) {
			s.Find(nonContentSelectors).Remove()
			if text := collapse(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})

		if len(parts) > 0 {
			return Extraction{
				Text:     strings.Join(parts, "\n"),
				Selector: selector,
				Elements: len(parts),
			}, nil
		}
	}

	return Extraction{}, nil
}

// collapse replaces runs of whitespace with a single space and trims.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
