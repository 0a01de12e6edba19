// Package draft implements the draft/permanent lifecycle of file records:
// promotion of drafts, copies of permanent files for editing, empty
// placeholders, reference counted deletion and draft item id issuance.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwantia/godraft/pkg/blob"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
)

const maxIDAttempts = 5

// Destination are the permanent coordinates a draft is promoted to.
type Destination struct {
	Component string
	FileArea  string
	ItemID    int64
	ContextID int64
}

func (d Destination) validate() error {
	if d.Component == "" || d.FileArea == "" {
		return fmt.Errorf("destination component and filearea are required")
	}
	if d.Component == models.DraftComponent && d.FileArea == models.DraftFileArea {
		return fmt.Errorf("destination must not be the draft area")
	}
	return nil
}

type Manager struct {
	store store.MetadataStore
	blobs *blob.Store
	ids   IDGenerator
	log   log.LoggerService
	now   func() time.Time
}

type Option func(*Manager)

func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(s store.MetadataStore, blobs *blob.Store, logger log.LoggerService, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		blobs: blobs,
		ids:   RandomGenerator{},
		log:   logger.Named("draft"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewDraftItemID issues an id that no live draft currently uses.
func (m *Manager) NewDraftItemID(ctx context.Context) (int64, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := m.ids.Next()
		if err != nil {
			return 0, err
		}

		_, err = m.store.FindFile(ctx, models.DraftComponent, models.DraftFileArea, id)
		if errors.Is(err, store.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to check draft item id: %w", err)
		}

		m.log.Debug("Draft item id %d already in use, retrying", id)
	}
	return 0, ErrIDExhausted
}

// FindDraft returns the first draft record carrying draftItemID.
func (m *Manager) FindDraft(ctx context.Context, draftItemID int64) (*models.File, error) {
	file, err := m.store.FindFile(ctx, models.DraftComponent, models.DraftFileArea, draftItemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find draft %d: %w", draftItemID, err)
	}
	return file, nil
}

// Promote moves the draft identified by draftItemID to dest in place. The
// destination component always replaces the draft component. Identity and
// content hash are kept. Promoting an already promoted id returns ErrNotFound.
func (m *Manager) Promote(ctx context.Context, draftItemID int64, dest Destination) (*models.File, error) {
	if err := dest.validate(); err != nil {
		return nil, err
	}

	file, err := m.FindDraft(ctx, draftItemID)
	if err != nil {
		return nil, err
	}

	file.Component = dest.Component
	file.FileArea = dest.FileArea
	file.ItemID = dest.ItemID
	file.ContextID = dest.ContextID
	file.TimeModified = m.now().Unix()

	if err := m.store.UpdateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to promote draft %d: %w", draftItemID, err)
	}

	m.log.Debug("Promoted draft %d to %s/%s/%d (file %d)", draftItemID, dest.Component, dest.FileArea, dest.ItemID, file.ID)
	return file, nil
}

// CopyToDraft clones the record sourceID into the draft area under
// newDraftItemID, owned by the same user as the source. Earlier draft copies
// of the same source are deleted first, so at most one copy exists per source.
func (m *Manager) CopyToDraft(ctx context.Context, sourceID uint, newDraftItemID int64) (*models.File, error) {
	source, err := m.loadSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return m.copyToDraft(ctx, source, newDraftItemID, source.UserID)
}

// CopyToDraftFor works like CopyToDraft but the copy belongs to userID, the
// user editing the file.
func (m *Manager) CopyToDraftFor(ctx context.Context, sourceID uint, newDraftItemID int64, userID *int64) (*models.File, error) {
	source, err := m.loadSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return m.copyToDraft(ctx, source, newDraftItemID, userID)
}

func (m *Manager) loadSource(ctx context.Context, sourceID uint) (*models.File, error) {
	source, err := m.store.GetFile(ctx, sourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load file %d: %w", sourceID, err)
	}
	return source, nil
}

func (m *Manager) copyToDraft(ctx context.Context, source *models.File, newDraftItemID int64, userID *int64) (*models.File, error) {
	sourceID := source.ID

	existing, err := m.store.FindFilesByReference(ctx, models.DraftComponent, models.DraftFileArea, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find draft copies of file %d: %w", sourceID, err)
	}
	for _, prior := range existing {
		if err := m.Delete(ctx, prior.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to delete draft copy %d: %w", prior.ID, err)
		}
	}

	now := m.now().Unix()
	copied := &models.File{
		ContentHash:     source.ContentHash,
		PathHash:        source.PathHash,
		ContextID:       source.ContextID,
		Component:       models.DraftComponent,
		FileArea:        models.DraftFileArea,
		ItemID:          newDraftItemID,
		FilePath:        source.FilePath,
		FileName:        source.FileName,
		UserID:          userID,
		FileSize:        source.FileSize,
		MimeType:        source.MimeType,
		Status:          source.Status,
		Author:          source.Author,
		License:         source.License,
		Source:          source.Source,
		TimeCreated:     now,
		TimeModified:    now,
		SortOrder:       source.SortOrder,
		ReferenceFileID: &source.ID,
	}

	if err := m.store.CreateFile(ctx, copied); err != nil {
		return nil, fmt.Errorf("failed to create draft copy of file %d: %w", sourceID, err)
	}

	m.log.Debug("Copied file %d to draft %d (file %d)", sourceID, newDraftItemID, copied.ID)
	return copied, nil
}

// CreateEmptyDraftFile stores a draft without content so a widget has a
// draft item id to work with.
func (m *Manager) CreateEmptyDraftFile(ctx context.Context, draftItemID int64, userID *int64) (*models.File, error) {
	noMime := ""
	now := m.now().Unix()
	file := &models.File{
		ContentHash:  "",
		PathHash:     "",
		ContextID:    1,
		Component:    models.DraftComponent,
		FileArea:     models.DraftFileArea,
		ItemID:       draftItemID,
		FilePath:     "/",
		FileName:     "",
		UserID:       userID,
		FileSize:     0,
		MimeType:     &noMime,
		Status:       0,
		TimeCreated:  now,
		TimeModified: now,
	}

	if err := m.store.CreateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to create empty draft %d: %w", draftItemID, err)
	}
	return file, nil
}

// Delete removes the record and releases its blob when no other record
// shares the content hash. The count and the delete are not atomic.
func (m *Manager) Delete(ctx context.Context, id uint) error {
	file, err := m.store.GetFile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load file %d: %w", id, err)
	}

	var others int64
	if !file.IsPlaceholder() {
		others, err = m.store.CountSameContent(ctx, file.ContentHash, file.ID)
		if err != nil {
			return fmt.Errorf("failed to count references of %s: %w", file.ContentHash, err)
		}
	}

	if err := m.store.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("failed to delete file %d: %w", id, err)
	}

	if file.IsPlaceholder() {
		return nil
	}

	// An orphaned blob is a leak, not corruption; the record is already gone.
	deleted, err := m.blobs.DeleteIfUnreferenced(file.ContentHash, others)
	if err != nil {
		m.log.Warn("Deleted file %d but failed to release blob %s: %v", id, file.ContentHash, err)
		return nil
	}
	if deleted {
		m.log.Debug("Released blob %s with file %d", file.ContentHash, id)
	}
	return nil
}
