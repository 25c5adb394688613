package headlines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pevans/headlines/catalog"
	"github.com/pevans/headlines/feeds"
	"github.com/pevans/headlines/links"
	"github.com/pevans/headlines/logger"
	"github.com/pevans/headlines/output"
	"github.com/pevans/headlines/publisher"
	"github.com/pevans/headlines/storage"
)

// Content types used for stored objects.
const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeXML  = "application/xml"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// Catalog records written partitions.
type Catalog interface {
	Record(ctx context.Context, p catalog.Partition) error
}

// JobConfig holds the collaborators of a Job.
type JobConfig struct {
	Registry *publisher.Registry
	Pipeline *Pipeline
	// Fetcher downloads homepages and feeds.
	Fetcher Fetcher
	Store   storage.Store
	// Catalog is optional.
	Catalog Catalog
	Logger  logger.Logger
}

// Job runs the download and parse stages against blob storage.
type Job struct {
	registry *publisher.Registry
	pipeline *Pipeline
	fetcher  Fetcher
	store    storage.Store
	catalog  Catalog
	log      logger.Logger
}

// RunSummary describes one completed parse stage.
type RunSummary struct {
	RunID            uuid.UUID `json:"run_id"`
	Publisher        string    `json:"publisher"`
	Date             string    `json:"date"`
	Key              string    `json:"key"`
	Records          int       `json:"records"`
	Enriched         bool      `json:"enriched"`
	FetchFailures    int       `json:"fetch_failures"`
	ExtractionMisses int       `json:"extraction_misses"`
}

// NewJob creates a job.
func NewJob(cfg JobConfig) *Job {
	j := &Job{
		registry: cfg.Registry,
		pipeline: cfg.Pipeline,
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		log:      cfg.Logger,
	}
	if j.log == nil {
		j.log = logger.NewNop()
	}
	return j
}

// Publishers returns the registered publisher identifiers in sorted order.
func (j *Job) Publishers() []string {
	return j.registry.IDs()
}

// Download fetches the publisher's homepage and stores it under its raw
// key. The feed, when configured, is stored best-effort.
func (j *Job) Download(ctx context.Context, publisherID string, date time.Time) error {
	cfg, err := j.registry.Get(publisherID)
	if err != nil {
		return err
	}

	log := j.log.With(logger.String("publisher", publisherID))

	// Fetch homepage
	markup, err := j.fetcher.Fetch(ctx, cfg.Homepage())
	if err != nil {
		return fmt.Errorf("failed to download homepage: %w", err)
	}

	key := output.RawKey(publisherID, date)
	if err := j.store.Put(ctx, key, markup, contentTypeHTML); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	log.Info("Stored homepage", logger.String("key", key), logger.Int("bytes", len(markup)))

	if cfg.FeedURL == "" {
		return nil
	}

	// Fetch feed
	feed, err := j.fetcher.Fetch(ctx, cfg.FeedURL)
	if err != nil {
		log.Warn("Failed to download feed", logger.String("url", cfg.FeedURL), logger.Err(err))
		return nil
	}

	feedKey := output.RawFeedKey(publisherID, date)
	if err := j.store.Put(ctx, feedKey, feed, contentTypeXML); err != nil {
		log.Warn("Failed to store feed", logger.String("key", feedKey), logger.Err(err))
		return nil
	}
	log.Info("Stored feed", logger.String("key", feedKey), logger.Int("bytes", len(feed)))

	return nil
}

// Parse reads the stored homepage, runs the pipeline and writes the
// resulting table to its partition key.
func (j *Job) Parse(ctx context.Context, publisherID string, date time.Time) (*RunSummary, error) {
	if _, err := j.registry.Get(publisherID); err != nil {
		return nil, err
	}

	log := j.log.With(logger.String("publisher", publisherID))

	rawKey := output.RawKey(publisherID, date)
	markup, err := j.store.Get(ctx, rawKey)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: rawKey, Err: err}
	}

	extra := j.feedCandidates(ctx, publisherID, date, log)

	table, err := j.pipeline.Run(ctx, markup, publisherID, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to run pipeline: %w", err)
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode table: %w", err)
	}

	key := output.Key(publisherID, date)
	if err := j.store.Put(ctx, key, buf.Bytes(), contentTypeCSV); err != nil {
		return nil, &StorageError{Op: "put", Key: key, Err: err}
	}

	summary := &RunSummary{
		RunID:            table.RunID,
		Publisher:        publisherID,
		Date:             date.Format(output.DateLayout),
		Key:              key,
		Records:          table.Len(),
		Enriched:         table.Enriched,
		FetchFailures:    table.Count(TextFetchFailed),
		ExtractionMisses: table.Count(TextNoContent),
	}

	if j.catalog != nil {
		err := j.catalog.Record(ctx, catalog.Partition{
			Publisher: publisherID,
			Date:      summary.Date,
			Key:       key,
			Rows:      summary.Records,
			Enriched:  summary.Enriched,
			RunID:     summary.RunID,
		})
		if err != nil {
			log.Error("Failed to record partition", logger.String("key", key), logger.Err(err))
			return summary, fmt.Errorf("failed to record partition: %w", err)
		}
	}

	log.Info("Stored headline table",
		logger.String("key", key),
		logger.Int("records", summary.Records),
	)

	return summary, nil
}

// Run downloads then parses one publisher.
func (j *Job) Run(ctx context.Context, publisherID string, date time.Time) (*RunSummary, error) {
	if err := j.Download(ctx, publisherID, date); err != nil {
		return nil, err
	}
	return j.Parse(ctx, publisherID, date)
}

// RunAll runs every registered publisher in sorted order. A failing
// publisher does not stop the others; their errors are joined.
func (j *Job) RunAll(ctx context.Context, date time.Time) ([]RunSummary, error) {
	var summaries []RunSummary
	var errs []error

	for _, id := range j.registry.IDs() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		summary, err := j.Run(ctx, id, date)
		if err != nil {
			j.log.Error("Publisher run failed", logger.String("publisher", id), logger.Err(err))
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		summaries = append(summaries, *summary)
	}

	return summaries, errors.Join(errs...)
}

// feedCandidates reads the stored feed for the run. A missing or broken
// feed yields no candidates.
func (j *Job) feedCandidates(ctx context.Context, publisherID string, date time.Time, log logger.Logger) []links.CandidateLink {
	key := output.RawFeedKey(publisherID, date)
	data, err := j.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Warn("Failed to read stored feed", logger.String("key", key), logger.Err(err))
		return nil
	}

	candidates, err := feeds.Candidates(data)
	if err != nil {
		log.Warn("Failed to parse stored feed", logger.String("key", key), logger.Err(err))
		return nil
	}
	return candidates
}
