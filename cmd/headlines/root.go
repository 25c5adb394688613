package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pevans/headlines"
	"github.com/pevans/headlines/catalog"
	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/fetch"
	"github.com/pevans/headlines/logger"
	"github.com/pevans/headlines/output"
	"github.com/pevans/headlines/publisher"
	"github.com/pevans/headlines/storage"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug level logging.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "headlines",
		Short:         "Newspaper headline scraper",
		Long:          `Download newspaper homepages and write partitioned headline tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment overrides are visible to config
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(downloadCommand())
	rootCmd.AddCommand(parseCommand())
	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(keyCommand())
	rootCmd.AddCommand(partitionsCommand())
	rootCmd.AddCommand(recordsCommand())
	rootCmd.AddCommand(serveCommand())
}

// app holds the wired dependencies shared by commands.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	registry *publisher.Registry
	store    storage.Store
	catalog  *catalog.Store
	job      *headlines.Job
}

// newApp loads configuration and wires every collaborator.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to load publishers: %w", err)
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.NewStore(cfg.Catalog.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})

	pipeline := headlines.NewPipeline(headlines.PipelineConfig{
		Registry: registry,
		Rules:    cfg.Rules,
		Fetcher:  fetcher,
		Throttle: fetch.NewThrottle(cfg.Fetch.Delay),
		Enrich:   cfg.Fetch.Enrich,
		Logger:   log,
	})

	job := headlines.NewJob(headlines.JobConfig{
		Registry: registry,
		Pipeline: pipeline,
		Fetcher:  fetcher,
		Store:    store,
		Catalog:  cat,
		Logger:   log,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		store:    store,
		catalog:  cat,
		job:      job,
	}, nil
}

// Close releases the catalog and flushes the logger.
func (a *app) Close() {
	a.catalog.Close()
	_ = a.log.Sync()
}

// openStore builds the configured blob store.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case config.StorageMinio:
		store, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageFile:
		return storage.NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// parseDateFlag returns the --date value, defaulting to today in UTC.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return output.ParseDate(value)
}

// publisherIDs returns the selected publisher, or every registered one.
func (a *app) publisherIDs(selected string) ([]string, error) {
	if selected == "" {
		return a.registry.IDs(), nil
	}
	if _, err := a.registry.Get(selected); err != nil {
		return nil, err
	}
	return []string{selected}, nil
}

// joinErrors is errors.Join with publisher prefixes.
func joinErrors(errs map[string]error, order []string) error {
	var all []error
	for _, id := range order {
		if err, ok := errs[id]; ok {
			all = append(all, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(all...)
}
