// Package publisher holds the per-newspaper configuration used to classify
// homepage links and extract article text.
package publisher

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrUnknownPublisher is returned when no configuration is registered for a
// publisher identifier.
var ErrUnknownPublisher = errors.New("unknown publisher")

// DefaultCategory is used when a link has no path segment to derive a
// category from.
const DefaultCategory = "general"

// Config defines how to read one newspaper's homepage and articles.
type Config struct {
	// BaseURL is the absolute origin relative links are resolved against.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// HomepageURL is downloaded by the download stage. Defaults to BaseURL.
	HomepageURL string `yaml:"homepage_url,omitempty" json:"homepage_url,omitempty"`
	// FeedURL is an optional RSS/Atom feed that adds candidate links.
	FeedURL string `yaml:"feed_url,omitempty" json:"feed_url,omitempty"`
	// ContentSelectors are CSS selectors tried in order against an
	// article page; the first one matching any text wins.
	ContentSelectors []string `yaml:"content_selectors" json:"content_selectors"`
	// CategoryAliases maps a lower-cased first path segment to the
	// canonical category name.
	CategoryAliases map[string]string `yaml:"category_aliases,omitempty" json:"category_aliases,omitempty"`
	// DefaultCategory overrides the package DefaultCategory.
	DefaultCategory string `yaml:"default_category,omitempty" json:"default_category,omitempty"`
}

// Homepage returns the URL the download stage fetches.
func (c *Config) Homepage() string {
	if c.HomepageURL != "" {
		return c.HomepageURL
	}
	return c.BaseURL
}

// FallbackCategory returns the category for links without path segments.
func (c *Config) FallbackCategory() string {
	if c.DefaultCategory != "" {
		return c.DefaultCategory
	}
	return DefaultCategory
}

// Validate checks that the configuration can be used by the pipeline.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https scheme: %s", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host: %s", c.BaseURL)
	}

	for _, sel := range c.ContentSelectors {
		if strings.TrimSpace(sel) == "" {
			return errors.New("content_selectors must not contain empty selectors")
		}
	}

	return nil
}

// Rules holds the tunable link classification thresholds shared by every
// publisher.
type Rules struct {
	// MinTitleLength is the minimum trimmed anchor text length, in
	// characters, for a link to count as a headline.
	MinTitleLength int `yaml:"min_title_length" json:"min_title_length"`
	// ExcludedSections are lower-case markers; any href whose lower-cased
	// path contains one of them is rejected.
	ExcludedSections []string `yaml:"excluded_sections" json:"excluded_sections"`
}

// DefaultRules returns the classification rules used when none are
// configured.
func DefaultRules() Rules {
	return Rules{
		MinTitleLength: 15,
		ExcludedSections: []string{
			"/servicios",
			"/horoscopo",
			"/contacto",
			"/suscripcion",
			"/newsletters",
			"/terminos",
			"/politica-de-privacidad",
			"/autores",
			"/podcast",
			"/juegos",
		},
	}
}

// Registry maps publisher identifiers to their configuration.
type Registry struct {
	configs map[string]Config
}

// NewRegistry creates a registry from the given configurations. Every
// configuration is validated.
func NewRegistry(configs map[string]Config) (*Registry, error) {
	r := &Registry{configs: make(map[string]Config, len(configs))}
	for id, cfg := range configs {
		if err := r.Register(id, cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a publisher configuration.
func (r *Registry) Register(id string, cfg Config) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("publisher id is required")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("publisher %s: %w", id, err)
	}

	// Normalize alias keys so lookups can use lower-cased segments
	if len(cfg.CategoryAliases) > 0 {
		aliases := make(map[string]string, len(cfg.CategoryAliases))
		for k, v := range cfg.CategoryAliases {
			aliases[strings.ToLower(k)] = v
		}
		cfg.CategoryAliases = aliases
	}

	r.configs[id] = cfg
	return nil
}

// Get returns the configuration for a publisher, or ErrUnknownPublisher.
func (r *Registry) Get(id string) (*Config, error) {
	cfg, ok := r.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPublisher, id)
	}
	return &cfg, nil
}

// IDs returns the registered publisher identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Defaults returns the built-in publisher configurations. Selectors track
// the current markup of each site and are expected to need maintenance.
func Defaults() map[string]Config {
	return map[string]Config{
		"eltiempo": {
			BaseURL:     "https://www.eltiempo.com",
			HomepageURL: "https://www.eltiempo.com/",
			ContentSelectors: []string{
				"div.paragraph p",
				"div.articulo-contenido p",
				"article p",
			},
			CategoryAliases: map[string]string{
				"mundo":      "internacional",
				"colombia":   "nacional",
				"bogota":     "bogota",
				"deportes":   "deportes",
				"economia":   "economia",
				"politica":   "politica",
				"justicia":   "justicia",
				"cultura":    "cultura",
				"tecnosfera": "tecnologia",
				"salud":      "salud",
			},
		},
		"elespectador": {
			BaseURL:     "https://www.elespectador.com",
			HomepageURL: "https://www.elespectador.com/",
			ContentSelectors: []string{
				"p.font--secondary",
				"div.Article-Content p",
				"article p",
			},
			CategoryAliases: map[string]string{
				"mundo":           "internacional",
				"colombia":        "nacional",
				"deportes":        "deportes",
				"economia":        "economia",
				"politica":        "politica",
				"judicial":        "justicia",
				"entretenimiento": "cultura",
				"ciencia":         "tecnologia",
				"salud":           "salud",
				"bogota":          "bogota",
			},
		},
	}
}
