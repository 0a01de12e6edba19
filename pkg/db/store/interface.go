package store

import (
	"context"
	"errors"

	"github.com/mwantia/godraft/pkg/db/models"
)

// ErrNotFound is returned when a lookup matches no file record.
var ErrNotFound = errors.New("file record not found")

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// File operations
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id uint) (*models.File, error)
	UpdateFile(ctx context.Context, file *models.File) error
	DeleteFile(ctx context.Context, id uint) error
	DeleteFiles(ctx context.Context, ids []uint) error

	// Coordinate lookups; FindFile returns the first match by id
	FindFile(ctx context.Context, component, filearea string, itemID int64) (*models.File, error)
	ListFiles(ctx context.Context, component, filearea string, itemID int64) ([]models.File, error)
	FindFilesByReference(ctx context.Context, component, filearea string, referenceID uint) ([]models.File, error)

	// Reference counting and retention
	CountSameContent(ctx context.Context, contentHash string, excludeIDs ...uint) (int64, error)
	ListFilesOlderThan(ctx context.Context, timestamp int64, component, filearea string) ([]models.File, error)
}
