package links

import (
	"strings"
	"testing"

	"github.com/pevans/headlines/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a classifier for a fictional publisher
func createTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	cfg := &publisher.Config{
		BaseURL: "https://www.example.com",
		CategoryAliases: map[string]string{
			"mundo":    "internacional",
			"colombia": "nacional",
		},
	}
	rules := publisher.Rules{
		MinTitleLength:   15,
		ExcludedSections: []string{"/servicios", "/horoscopo", "/Contacto"},
	}
	return NewClassifier(rules, cfg)
}

const longTitle = "La inflación sube por tercer mes"

// TestCheck_ShortTitles verifies every title under the threshold is rejected
func TestCheck_ShortTitles(t *testing.T) {
	c := createTestClassifier(t)

	for n := 0; n < 15; n++ {
		link := CandidateLink{Title: strings.Repeat("a", n), Href: "/economia/inflacion-sube"}
		reason, ok := c.Check(link)
		assert.False(t, ok, "title of length %d should be rejected", n)
		assert.Equal(t, RejectShortTitle, reason)
	}

	assert.True(t, c.IsNews(CandidateLink{Title: strings.Repeat("a", 15), Href: "/economia/inflacion-sube"}))
}

// TestCheck_TitleLengthCountsCharacters verifies multi-byte titles are
// measured in characters, not bytes
func TestCheck_TitleLengthCountsCharacters(t *testing.T) {
	c := createTestClassifier(t)

	// 14 characters, 18 bytes
	title := "ñañañañañañaña"
	require.Len(t, []rune(title), 14)
	assert.False(t, c.IsNews(CandidateLink{Title: title, Href: "/economia/nota"}))
}

// TestCheck_ExcludedSections verifies deny-listed paths are rejected
// regardless of title length
func TestCheck_ExcludedSections(t *testing.T) {
	c := createTestClassifier(t)

	hrefs := []string{
		"/servicios/clima-hoy",
		"/horoscopo/aries-123456",
		"/CONTACTO/formulario",
		"https://www.example.com/servicios/loterias",
		"/vida/horoscopo/hoy",
	}
	for _, href := range hrefs {
		link := CandidateLink{Title: strings.Repeat("titular largo ", 10), Href: href}
		reason, ok := c.Check(link)
		assert.False(t, ok, "href %s should be rejected", href)
		assert.Equal(t, RejectExcludedPath, reason, "href %s", href)
	}
}

// TestCheck_ArticlePathShape verifies path shape rules
func TestCheck_ArticlePathShape(t *testing.T) {
	c := createTestClassifier(t)

	tests := []struct {
		href string
		want bool
	}{
		{"/deportes/futbol", true},
		{"/economia/inflacion-sube-2024", true},
		{"deportes/futbol", true},
		{"/noticia-123456", true},
		{"/nota-20241225.html", true},
		{"https://www.example.com/mundo/europa/nota", true},
		{"/deportes/futbol?utm=home#top", true},
		{"/", false},
		{"/deportes", false},
		{"/deportes/", false},
		{"/nota-123", false},
		{"#", false},
		{"javascript:void(0)", false},
		{"mailto:redaccion@example.com", false},
		{"https://externo.com/noticia", false},
	}

	for _, tt := range tests {
		link := CandidateLink{Title: longTitle, Href: tt.href}
		assert.Equal(t, tt.want, c.IsNews(link), "href %q", tt.href)
	}
}

// TestCheck_MissingHref verifies anchors without href are rejected
func TestCheck_MissingHref(t *testing.T) {
	c := createTestClassifier(t)

	reason, ok := c.Check(CandidateLink{Title: longTitle, Href: "   "})
	assert.False(t, ok)
	assert.Equal(t, RejectMissingHref, reason)
}

// TestCategory verifies alias normalization and fallbacks
func TestCategory(t *testing.T) {
	c := createTestClassifier(t)

	tests := []struct {
		href string
		want string
	}{
		{"/mundo/europa/nota", "internacional"},
		{"/Colombia/medellin/nota", "nacional"},
		{"/Deportes/futbol", "deportes"},
		{"https://www.example.com/economia/nota", "economia"},
		{"", "general"},
		{"/", "general"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Category(CandidateLink{Title: longTitle, Href: tt.href}), "href %q", tt.href)
	}
}

// TestCategory_PublisherDefault verifies a configured default category
func TestCategory_PublisherDefault(t *testing.T) {
	cfg := &publisher.Config{BaseURL: "https://www.example.com", DefaultCategory: "portada"}
	c := NewClassifier(publisher.DefaultRules(), cfg)

	assert.Equal(t, "portada", c.Category(CandidateLink{Href: "/"}))
}

// TestClassify verifies accepted links carry category and absolute URL
func TestClassify(t *testing.T) {
	c := createTestClassifier(t)

	link, reason, ok := c.Classify(CandidateLink{Title: longTitle, Href: "/mundo/europa/nota-1234"})
	require.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, "internacional", link.Category)
	assert.Equal(t, "https://www.example.com/mundo/europa/nota-1234", link.ResolvedURL)
	assert.Equal(t, longTitle, link.Title)

	_, reason, ok = c.Classify(CandidateLink{Title: "Inicio", Href: "/"})
	assert.False(t, ok)
	assert.Equal(t, RejectShortTitle, reason)
}

// TestLooksLikeArticlePath verifies the predicate on bare paths
func TestLooksLikeArticlePath(t *testing.T) {
	assert.True(t, LooksLikeArticlePath("/a/b"))
	assert.True(t, LooksLikeArticlePath("/articulo-98765"))
	assert.False(t, LooksLikeArticlePath(""))
	assert.False(t, LooksLikeArticlePath("//"))
	assert.False(t, LooksLikeArticlePath("/seccion"))
}
