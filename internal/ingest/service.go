// Package ingest is the single path through which uploaded content becomes a
// file record: validation hooks, content addressed storage, record creation
// and notification hooks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mwantia/godraft/pkg/blob"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
)

// UnknownSize marks an upload whose length was not declared by the client.
const UnknownSize int64 = -1

type Upload struct {
	Reader   io.Reader
	Filename string
	// MimeType is empty when the client did not declare one.
	MimeType string
	Size     int64
}

// Coordinates locate the record that is created for an upload.
type Coordinates struct {
	Component string
	FileArea  string
	ItemID    int64
	ContextID int64
	UserID    *int64
}

// DraftIDIssuer issues item ids for new drafts.
type DraftIDIssuer interface {
	NewDraftItemID(ctx context.Context) (int64, error)
}

type Service struct {
	store      store.MetadataStore
	blobs      *blob.Store
	drafts     DraftIDIssuer
	dispatcher *Dispatcher
	log        log.LoggerService
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithDispatcher(d *Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

func NewService(s store.MetadataStore, blobs *blob.Store, drafts DraftIDIssuer, logger log.LoggerService, opts ...Option) *Service {
	svc := &Service{
		store:      s,
		blobs:      blobs,
		drafts:     drafts,
		dispatcher: NewDispatcher(),
		log:        logger.Named("ingest"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Ingest stores the upload and creates its record at coords.
func (s *Service) Ingest(ctx context.Context, upload Upload, coords Coordinates) (*models.File, error) {
	start := time.Now()
	defer func() {
		uploadDuration.Observe(time.Since(start).Seconds())
	}()

	file, err := s.ingest(ctx, &upload, coords)
	switch {
	case err == nil:
		uploadsTotal.WithLabelValues("success").Inc()
	case IsValidation(err):
		uploadsTotal.WithLabelValues("rejected").Inc()
	default:
		uploadsTotal.WithLabelValues("error").Inc()
	}
	return file, err
}

// IngestDraft stores the upload as a new draft owned by userID.
func (s *Service) IngestDraft(ctx context.Context, upload Upload, contextID int64, userID *int64) (*models.File, error) {
	itemID, err := s.drafts.NewDraftItemID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to issue draft item id: %w", err)
	}

	return s.Ingest(ctx, upload, Coordinates{
		Component: models.DraftComponent,
		FileArea:  models.DraftFileArea,
		ItemID:    itemID,
		ContextID: contextID,
		UserID:    userID,
	})
}

func (s *Service) ingest(ctx context.Context, upload *Upload, coords Coordinates) (*models.File, error) {
	if upload.Reader == nil {
		return nil, NewValidationError("No file was uploaded")
	}
	if coords.Component == "" || coords.FileArea == "" {
		return nil, fmt.Errorf("component and filearea are required")
	}

	if err := s.dispatcher.dispatchPreUpload(ctx, &PreUploadEvent{Upload: upload, Coordinates: coords}); err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			return nil, err
		}
		return nil, &ValidationError{Message: err.Error(), Err: err}
	}

	written, err := s.blobs.Write(ctx, upload.Reader)
	if err != nil {
		return nil, &StorageError{Op: "write", Err: err}
	}
	uploadBytesTotal.Add(float64(written.Size))

	path, _ := s.blobs.FullPath(written.Hash)
	now := s.now().Unix()

	file := &models.File{
		ContentHash:  written.Hash,
		PathHash:     blob.HashString(upload.Filename),
		ContextID:    coords.ContextID,
		Component:    coords.Component,
		FileArea:     coords.FileArea,
		ItemID:       coords.ItemID,
		FilePath:     "/",
		FileName:     upload.Filename,
		UserID:       coords.UserID,
		FileSize:     written.Size,
		MimeType:     models.StringPtr(upload.MimeType),
		Status:       0,
		TimeCreated:  now,
		TimeModified: now,
		SortOrder:    0,
	}

	if err := s.dispatcher.dispatchPostUpload(ctx, &PostUploadEvent{Upload: upload, File: file, Path: path}); err != nil {
		s.log.Warn("Post upload hook rejected '%s', blob %s is left unreferenced: %v", upload.Filename, written.Hash, err)
		return nil, err
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, &StorageError{Op: "persist", Err: err}
	}

	if err := s.dispatcher.dispatchPostPersist(ctx, &PostPersistEvent{File: file}); err != nil {
		s.log.Error("Post persist hook failed for file %d: %v", file.ID, err)
	}

	s.log.Debug("Stored '%s' as file %d (%s, %d bytes) in %s/%s/%d",
		file.FileName, file.ID, file.ContentHash, file.FileSize, file.Component, file.FileArea, file.ItemID)
	return file, nil
}
