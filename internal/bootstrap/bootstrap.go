// Package bootstrap turns a loaded Config into the store and service shared
// by the server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"

	workerpool "github.com/okian/teamsite/internal/adapters/mq/worker"
	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/internal/adapters/results"
	service "github.com/okian/teamsite/internal/app"
	"github.com/okian/teamsite/internal/config"
	"github.com/okian/teamsite/pkg/logger"
)

// OpenStore connects to the configured database. Postgres tables are
// migrated when migrate is set.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger, migrate bool) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		log.Warn(ctx, "using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	case config.DriverPostgres:
		store, err := repository.OpenPostgres(cfg.DatabaseDSN,
			repository.WithMaxOpenConns(cfg.DBMaxOpenConns),
			repository.WithMaxIdleConns(cfg.DBMaxIdleConns),
			repository.WithConnMaxLifetime(cfg.DBConnMaxLifetime()),
			repository.WithLogger(log.Named("gorm")),
		)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if migrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownDriver, cfg.DatabaseDriver)
	}
}

// NewImporter builds the results importer, or nil when no API key or team
// is configured.
func NewImporter(cfg *config.Config, store repository.Store, log logger.Logger) *results.Importer {
	if !cfg.SyncEnabled() {
		return nil
	}
	httpClient := results.NewHTTPClient(cfg.ResultsTimeout(), cfg.ResultsProxy, log)
	client := results.NewClient(cfg.ResultsBaseURL, cfg.ResultsAPIKey, httpClient)
	return results.NewImporter(client, store.Events(), cfg.TeamKey,
		results.WithConcurrency(cfg.ResultsConcurrency),
		results.WithImporterLogger(log),
	)
}

// NewService wires the service over store with the sync pipeline settings
// from cfg. The service is not started.
func NewService(cfg *config.Config, store repository.Store, log logger.Logger) *service.Service {
	var importer workerpool.Importer
	if imp := NewImporter(cfg, store, log); imp != nil {
		importer = imp
	} else {
		log.Info(context.Background(), "results sync disabled; set results_api_key and team_key to enable")
	}
	return service.New(store, importer,
		service.WithLogger(log),
		service.WithWorkerCount(cfg.SyncWorkerCount),
		service.WithQueueSize(cfg.SyncQueueSize),
		service.WithDedupeSize(cfg.SyncDedupeSize),
		service.WithJobTimeout(cfg.SyncJobTimeout()),
		service.WithSyncInterval(cfg.SyncInterval()),
	)
}
