package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/godraft/pkg/db/migrations"
	"github.com/mwantia/godraft/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements MetadataStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// ParseLogLevel maps a config value onto a gorm log level.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn", "warning":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// NewSQLiteStore creates a new SQLite-backed metadata store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs all pending versioned migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// File operations

func (s *SQLiteStore) CreateFile(ctx context.Context, file *models.File) error {
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *SQLiteStore) GetFile(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

func (s *SQLiteStore) UpdateFile(ctx context.Context, file *models.File) error {
	if file.ID == 0 {
		return fmt.Errorf("cannot update file record without id")
	}
	return s.db.WithContext(ctx).Save(file).Error
}

func (s *SQLiteStore) DeleteFile(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.File{}, id).Error
}

func (s *SQLiteStore) DeleteFiles(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.File{}).Error
}

func (s *SQLiteStore) FindFile(ctx context.Context, component, filearea string, itemID int64) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).
		Where("component = ? AND file_area = ? AND item_id = ?", component, filearea, itemID).
		Order("id ASC").
		First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

func (s *SQLiteStore) ListFiles(ctx context.Context, component, filearea string, itemID int64) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("component = ? AND file_area = ? AND item_id = ?", component, filearea, itemID).
		Order("sort_order ASC, id ASC").
		Find(&files).Error
	return files, err
}

func (s *SQLiteStore) FindFilesByReference(ctx context.Context, component, filearea string, referenceID uint) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("component = ? AND file_area = ? AND reference_file_id = ?", component, filearea, referenceID).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

// Reference counting and retention

func (s *SQLiteStore) CountSameContent(ctx context.Context, contentHash string, excludeIDs ...uint) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.File{}).Where("content_hash = ?", contentHash)

	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	err := query.Count(&count).Error
	return count, err
}

func (s *SQLiteStore) ListFilesOlderThan(ctx context.Context, timestamp int64, component, filearea string) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("component = ? AND file_area = ? AND time_created < ?", component, filearea, timestamp).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
