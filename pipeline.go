package headlines

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/pevans/headlines/extract"
	"github.com/pevans/headlines/fetch"
	"github.com/pevans/headlines/links"
	"github.com/pevans/headlines/logger"
	"github.com/pevans/headlines/publisher"
)

// Fetcher retrieves article markup. Errors are treated as per-article
// fetch failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Throttle spaces out successive article fetches.
type Throttle interface {
	Wait(ctx context.Context) error
}

// RejectDuplicate marks a news link whose resolved URL was already
// accepted in the same run.
const RejectDuplicate links.Rejection = "duplicate"

// PipelineConfig holds the collaborators of a Pipeline.
type PipelineConfig struct {
	Registry *publisher.Registry
	Rules    publisher.Rules
	Fetcher  Fetcher
	// Throttle defaults to fetch.DefaultDelay between fetches.
	Throttle Throttle
	// Enrich fetches every accepted article and adds its text.
	Enrich bool
	Logger logger.Logger
}

// Pipeline turns homepage markup into a ResultTable.
type Pipeline struct {
	registry *publisher.Registry
	rules    publisher.Rules
	fetcher  Fetcher
	throttle Throttle
	enrich   bool
	log      logger.Logger
}

// NewPipeline creates a pipeline. A nil Fetcher disables enrichment.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		registry: cfg.Registry,
		rules:    cfg.Rules,
		fetcher:  cfg.Fetcher,
		throttle: cfg.Throttle,
		enrich:   cfg.Enrich && cfg.Fetcher != nil,
		log:      cfg.Logger,
	}

	if p.registry == nil {
		p.registry, _ = publisher.NewRegistry(nil)
	}
	if p.throttle == nil {
		p.throttle = fetch.NewThrottle(fetch.DefaultDelay)
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}

	return p
}

// Enriched reports whether tables from this pipeline carry article text.
func (p *Pipeline) Enriched() bool {
	return p.enrich
}

// Run parses homepage markup for the given publisher. Extra candidates,
// such as feed items, are considered after the homepage anchors.
//
// An unknown publisher returns an empty table together with an error
// wrapping publisher.ErrUnknownPublisher. Article failures never fail the
// run; they are reported through each record's TextStatus.
func (p *Pipeline) Run(ctx context.Context, markup []byte, publisherID string, extra ...links.CandidateLink) (*ResultTable, error) {
	table := NewResultTable(p.enrich)
	table.RunID = uuid.New()

	cfg, err := p.registry.Get(publisherID)
	if err != nil {
		return table, err
	}

	log := p.log.With(
		logger.String("publisher", publisherID),
		logger.String("run_id", table.RunID.String()),
	)

	candidates, err := Anchors(markup)
	if err != nil {
		return table, err
	}
	candidates = append(candidates, extra...)

	log.Info("Starting headline run",
		logger.Int("candidates", len(candidates)),
		logger.Bool("enrich", p.enrich),
	)

	accepted := p.accept(candidates, cfg, log)

	for _, link := range accepted {
		record := HeadlineRecord{
			Category:   link.Category,
			Headline:   link.Title,
			Link:       link.ResolvedURL,
			TextStatus: TextNotFetched,
		}

		if p.enrich {
			if err := p.throttle.Wait(ctx); err != nil {
				return table, fmt.Errorf("run interrupted: %w", err)
			}
			p.enrichRecord(ctx, &record, cfg, log)
		}

		table.Records = append(table.Records, record)
	}

	log.Info("Finished headline run",
		logger.Int("accepted", len(accepted)),
		logger.Int("records", table.Len()),
		logger.Int("fetch_failures", table.Count(TextFetchFailed)),
		logger.Int("extraction_misses", table.Count(TextNoContent)),
	)

	return table, nil
}

// accept classifies, resolves and de-duplicates candidates, keeping their
// order.
func (p *Pipeline) accept(candidates []links.CandidateLink, cfg *publisher.Config, log logger.Logger) []links.ClassifiedLink {
	classifier := links.NewClassifier(p.rules, cfg)
	seen := make(map[string]struct{})
	var accepted []links.ClassifiedLink

	for _, candidate := range candidates {
		link, reason, ok := classifier.Classify(candidate)
		if ok {
			if _, dup := seen[link.ResolvedURL]; dup {
				reason, ok = RejectDuplicate, false
			}
		}

		if !ok {
			log.Debug("Rejected candidate link",
				logger.String("href", candidate.Href),
				logger.String("title", candidate.Title),
				logger.String("rule", string(reason)),
			)
			continue
		}

		seen[link.ResolvedURL] = struct{}{}
		accepted = append(accepted, link)
	}

	return accepted
}

// enrichRecord fetches the article and fills in its text. Failures are
// recorded on the record.
func (p *Pipeline) enrichRecord(ctx context.Context, record *HeadlineRecord, cfg *publisher.Config, log logger.Logger) {
	markup, err := p.fetcher.Fetch(ctx, record.Link)
	if err != nil {
		record.TextStatus = TextFetchFailed
		record.FailureReason = string(fetch.ReasonConnection)

		fields := []logger.Field{logger.String("url", record.Link), logger.Err(err)}
		if failure, ok := fetch.AsFailure(err); ok {
			record.FailureReason = string(failure.Reason)
			fields = append(fields,
				logger.String("reason", string(failure.Reason)),
				logger.Int("status", failure.StatusCode),
			)
		}
		log.Warn("Failed to fetch article", fields...)
		return
	}

	extraction, err := extract.Extract(markup, cfg.ContentSelectors)
	if err != nil {
		record.TextStatus = TextNoContent
		log.Error("Failed to extract article", logger.String("url", record.Link), logger.Err(err))
		return
	}
	if extraction.Miss() {
		record.TextStatus = TextNoContent
		log.Warn("No content matched article selectors",
			logger.String("url", record.Link),
			logger.Strings("selectors", cfg.ContentSelectors),
		)
		return
	}

	record.FullText = extraction.Text
	record.TextStatus = TextExtracted
}

// Anchors returns a candidate link for every anchor with a non-empty href,
// in document order. Titles have their whitespace collapsed.
func Anchors(markup []byte) ([]links.CandidateLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse homepage: %w", err)
	}

	var candidates []links.CandidateLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		candidates = append(candidates, links.CandidateLink{
			Title: strings.Join(strings.Fields(s.Text()), " "),
			Href:  href,
		})
	})

	return candidates, nil
}
