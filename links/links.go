// Package links decides which homepage anchors are news links, derives
// their category and resolves them to absolute article URLs.
package links

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pevans/headlines/publisher"
)

// CandidateLink is an anchor found on a homepage, before filtering.
type CandidateLink struct {
	Title string
	Href  string
}

// ClassifiedLink is a news link with its category and absolute URL.
type ClassifiedLink struct {
	CandidateLink
	Category    string
	ResolvedURL string
}

// Rejection names the rule that rejected a candidate link.
type Rejection string

const (
	RejectShortTitle     Rejection = "short_title"
	RejectMissingHref    Rejection = "missing_href"
	RejectNotArticlePath Rejection = "not_article_path"
	RejectExcludedPath   Rejection = "excluded_section"
)

// articleIDSuffix matches a path segment ending in an article id, with an
// optional extension ("noticia-123456", "nota-20241225.html").
var articleIDSuffix = regexp.MustCompile(`\d{4,}(?:\.[A-Za-z0-9]+)?$`)

// Classifier applies the news link rules for a single publisher.
type Classifier struct {
	rules publisher.Rules
	cfg   *publisher.Config
}

// NewClassifier creates a classifier for the given publisher.
func NewClassifier(rules publisher.Rules, cfg *publisher.Config) *Classifier {
	if rules.MinTitleLength < 1 {
		rules.MinTitleLength = 1
	}

	excluded := make([]string, 0, len(rules.ExcludedSections))
	for _, marker := range rules.ExcludedSections {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" {
			excluded = append(excluded, marker)
		}
	}
	rules.ExcludedSections = excluded

	return &Classifier{rules: rules, cfg: cfg}
}

// Check applies the rules in order and returns the first one that rejects
// the link. ok is true when every rule passes.
func (c *Classifier) Check(link CandidateLink) (reason Rejection, ok bool) {
	// Navigation chrome usually has short labels
	if utf8.RuneCountInString(strings.TrimSpace(link.Title)) < c.rules.MinTitleLength {
		return RejectShortTitle, false
	}

	href := strings.TrimSpace(link.Href)
	if href == "" {
		return RejectMissingHref, false
	}

	path, ok := hrefPath(href)
	if !ok || !LooksLikeArticlePath(path) {
		return RejectNotArticlePath, false
	}

	if c.excluded(path) {
		return RejectExcludedPath, false
	}

	return "", true
}

// IsNews reports whether the link passes every classification rule.
func (c *Classifier) IsNews(link CandidateLink) bool {
	_, ok := c.Check(link)
	return ok
}

// Category derives the topic of a link from its first path segment.
func (c *Classifier) Category(link CandidateLink) string {
	path, _ := hrefPath(strings.TrimSpace(link.Href))
	segments := pathSegments(path)
	if len(segments) == 0 {
		return c.cfg.FallbackCategory()
	}

	first := strings.ToLower(segments[0])
	if canonical, ok := c.cfg.CategoryAliases[first]; ok && canonical != "" {
		return canonical
	}
	return first
}

// Classify checks the link and, when accepted, returns it with its
// category and resolved URL.
func (c *Classifier) Classify(link CandidateLink) (ClassifiedLink, Rejection, bool) {
	if reason, ok := c.Check(link); !ok {
		return ClassifiedLink{}, reason, false
	}

	return ClassifiedLink{
		CandidateLink: link,
		Category:      c.Category(link),
		ResolvedURL:   Resolve(link.Href, c.cfg.BaseURL),
	}, "", true
}

func (c *Classifier) excluded(path string) bool {
	lower := "/" + strings.TrimPrefix(strings.ToLower(path), "/")
	for _, marker := range c.rules.ExcludedSections {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// LooksLikeArticlePath reports whether a URL path has the shape of an
// article: at least two non-empty segments, or a single segment ending in
// a numeric id of four or more digits.
func LooksLikeArticlePath(path string) bool {
	segments := pathSegments(path)
	switch {
	case len(segments) >= 2:
		return true
	case len(segments) == 1:
		return articleIDSuffix.MatchString(segments[0])
	default:
		return false
	}
}

// hrefPath returns the path component of an href. Opaque URLs such as
// "mailto:" or "javascript:" have no path.
func hrefPath(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return u.Path, true
}

func pathSegments(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
