package agent

import (
	"context"
	"fmt"
	"time"

	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/mwantia/godraft/internal/draft"
	"github.com/mwantia/godraft/internal/ingest"
	"github.com/mwantia/godraft/internal/retention"
	"github.com/mwantia/godraft/pkg/blob"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
)

// Services bundles everything that operates on the file records.
type Services struct {
	Store   store.MetadataStore
	Blobs   *blob.Store
	Drafts  *draft.Manager
	Binder  *draft.Binder
	Ingest  *ingest.Service
	Sweeper *retention.Sweeper
}

// OpenMetadataStore connects the configured metadata store and applies all
// pending migrations.
func OpenMetadataStore(ctx context.Context, cfg config.MetadataServerConfig) (*store.SQLiteStore, error) {
	s, err := ConnectMetadataStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate metadata store: %w", err)
	}

	return s, nil
}

// ConnectMetadataStore connects the configured metadata store without
// touching its schema.
func ConnectMetadataStore(ctx context.Context, cfg config.MetadataServerConfig) (*store.SQLiteStore, error) {
	if cfg.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported metadata type '%s'", cfg.Type)
	}

	s, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     cfg.SQLite.Path,
		LogLevel: store.ParseLogLevel(cfg.SQLite.LogLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := s.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect metadata store: %w", err)
	}

	return s, nil
}

// NewServices builds the services on top of an opened metadata store.
func NewServices(cfg *config.BaseServerConfig, s store.MetadataStore, logger log.LoggerService) (*Services, error) {
	blobs, err := blob.NewOsStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	maxSize, err := cfg.Upload.MaxSizeBytes()
	if err != nil {
		return nil, err
	}

	drafts := draft.NewManager(s, blobs, logger)
	svc := ingest.NewService(s, blobs, drafts, logger)
	svc.Dispatcher().OnPreUpload(ingest.Validator{
		MaxSize:   maxSize,
		MimeTypes: cfg.Upload.MimeTypes,
	}.Hook())

	return &Services{
		Store:   s,
		Blobs:   blobs,
		Drafts:  drafts,
		Binder:  draft.NewBinder(drafts),
		Ingest:  svc,
		Sweeper: retention.NewSweeper(s, blobs, logger),
	}, nil
}

// MaxAge converts a number of days into a retention age.
func MaxAge(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
