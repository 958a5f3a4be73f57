// Package app wires configuration into concrete components and owns their
// lifecycles.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/api"
	"github.com/harwoodm/atheneum/internal/archive"
	"github.com/harwoodm/atheneum/internal/catalog"
	catalogmem "github.com/harwoodm/atheneum/internal/catalog/memory"
	catalogpg "github.com/harwoodm/atheneum/internal/catalog/postgres"
	"github.com/harwoodm/atheneum/internal/classify"
	clocksys "github.com/harwoodm/atheneum/internal/clock/system"
	"github.com/harwoodm/atheneum/internal/config"
	"github.com/harwoodm/atheneum/internal/filter"
	iduuid "github.com/harwoodm/atheneum/internal/id/uuid"
	"github.com/harwoodm/atheneum/internal/ingest"
	joblogmem "github.com/harwoodm/atheneum/internal/joblog/memory"
	joblogpg "github.com/harwoodm/atheneum/internal/joblog/postgres"
	"github.com/harwoodm/atheneum/internal/logging"
	"github.com/harwoodm/atheneum/internal/metrics"
	"github.com/harwoodm/atheneum/internal/pdf"
	"github.com/harwoodm/atheneum/internal/pipeline"
	pubnoop "github.com/harwoodm/atheneum/internal/publisher/noop"
	pubgcp "github.com/harwoodm/atheneum/internal/publisher/pubsub"
	storagegcs "github.com/harwoodm/atheneum/internal/storage/gcs"
	storagemem "github.com/harwoodm/atheneum/internal/storage/memory"
)

// App holds every wired component for the lifetime of a command.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Source  *archive.Client
	Filters *filter.State
	Catalog ingest.CatalogStore
	JobLog  ingest.JobLogStore
	Blobs   ingest.BlobStore
	Runner  *pipeline.Runner

	closers []func() error
}

// New builds an App from configuration, failing fast on any unreachable
// backend.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	metrics.Init()

	a := &App{Config: cfg, Logger: logger}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	source, err := archive.New(archive.Config{
		Name:        cfg.Source.Name,
		BaseURL:     cfg.Source.BaseURL,
		Query:       cfg.Source.Query,
		MinInterval: cfg.SourceMinInterval(),
		Timeout:     cfg.SourceTimeout(),
		MaxRetries:  cfg.Source.MaxRetries,
		RetryDelay:  cfg.SourceRetryDelay(),
	}, logger.Named("archive"))
	if err != nil {
		return nil, a.closeOnError(err)
	}
	a.Source = source

	if err := a.wireCatalog(ctx); err != nil {
		return nil, a.closeOnError(err)
	}
	if err := a.wireJobLog(ctx); err != nil {
		return nil, a.closeOnError(err)
	}
	if err := a.wireBlobs(ctx); err != nil {
		return nil, a.closeOnError(err)
	}
	publisher, err := a.wirePublisher(ctx)
	if err != nil {
		return nil, a.closeOnError(err)
	}

	classifier := classify.NewOpenAIClassifier(classify.Config{
		APIKey:  cfg.Classifier.APIKey,
		Model:   cfg.Classifier.Model,
		BaseURL: cfg.Classifier.BaseURL,
		Timeout: time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
	}, logger.Named("classify"))

	a.Filters = filter.NewState(cfg.Filters.Snapshot())
	engine := filter.New(filter.NewLogSink(logger.Named("filter")), nil)

	runner, err := pipeline.NewRunner(pipeline.Deps{
		Source:     source,
		Classifier: classifier,
		Filters:    engine,
		Fetcher:    pdf.NewDownloader(source, logger.Named("pdf")),
		Blobs:      a.Blobs,
		Catalog:    a.Catalog,
		JobLog:     a.JobLog,
		Publisher:  publisher,
		Clock:      clocksys.New(),
		IDs:        iduuid.NewGenerator(),
		Logger:     logger.Named("pipeline"),
		Topic:      cfg.PubSub.TopicID,
	})
	if err != nil {
		return nil, a.closeOnError(err)
	}
	a.Runner = runner
	return a, nil
}

func (a *App) wireCatalog(ctx context.Context) error {
	switch a.Config.Providers.Catalog {
	case "postgres":
		store, err := catalogpg.New(ctx, catalogpg.Config{
			DSN:      a.Config.DB.DSN,
			MaxConns: a.Config.DB.MaxConns,
			MinConns: a.Config.DB.MinConns,
		})
		if err != nil {
			return fmt.Errorf("wire catalog store: %w", err)
		}
		a.Catalog = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
	default:
		a.Catalog = catalogmem.NewStore()
	}
	return nil
}

func (a *App) wireJobLog(ctx context.Context) error {
	switch a.Config.Providers.JobLog {
	case "postgres":
		// The job log shares the catalog database but gets its own small
		// pool, so log writes never contend with catalog traffic.
		poolCfg, err := pgxpool.ParseConfig(a.Config.DB.DSN)
		if err != nil {
			return fmt.Errorf("wire job log store: %w", err)
		}
		poolCfg.MaxConns = 2
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("wire job log store: %w", err)
		}
		store, err := joblogpg.New(pool)
		if err != nil {
			pool.Close()
			return fmt.Errorf("wire job log store: %w", err)
		}
		a.JobLog = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
	default:
		a.JobLog = joblogmem.NewStore()
	}
	return nil
}

func (a *App) wireBlobs(ctx context.Context) error {
	switch a.Config.Providers.Storage {
	case "gcs":
		store, err := storagegcs.Dial(ctx, storagegcs.Config{Bucket: a.Config.Storage.Bucket})
		if err != nil {
			return fmt.Errorf("wire blob store: %w", err)
		}
		a.Blobs = store
		a.closers = append(a.closers, store.Close)
	default:
		a.Blobs = storagemem.NewBlobStore()
	}
	return nil
}

func (a *App) wirePublisher(ctx context.Context) (ingest.Publisher, error) {
	switch a.Config.Providers.Publisher {
	case "pubsub":
		pub, err := pubgcp.Dial(ctx, a.Config.PubSub.ProjectID, a.Logger.Named("pubsub"))
		if err != nil {
			return nil, fmt.Errorf("wire publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		return pub, nil
	default:
		return pubnoop.NewPublisher(a.Logger.Named("publisher")), nil
	}
}

// AdminServer builds the admin API server over the wired stores.
func (a *App) AdminServer() *api.Server {
	return api.NewServer(a.Filters, a.JobLog, a.Logger.Named("api"))
}

// Maintainer builds the bulk category maintainer over the wired catalog.
func (a *App) Maintainer() *catalog.Maintainer {
	return catalog.NewMaintainer(a.Catalog, a.Logger.Named("catalog"))
}

// Close releases every wired resource in reverse wiring order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) closeOnError(err error) error {
	_ = a.Close()
	return err
}
