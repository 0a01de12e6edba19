package ingest

import (
	"context"
	"sync"

	"github.com/mwantia/godraft/pkg/db/models"
)

// PreUploadEvent is dispatched before the content is read. Hooks may reject
// the upload by returning an error.
type PreUploadEvent struct {
	Upload      *Upload
	Coordinates Coordinates
}

// PostUploadEvent is dispatched after the blob is written and before the
// record is saved. Hooks may modify File.
type PostUploadEvent struct {
	Upload *Upload
	File   *models.File
	Path   string
}

// PostPersistEvent is dispatched after the record is saved.
type PostPersistEvent struct {
	File *models.File
}

type (
	PreUploadHook   func(ctx context.Context, event *PreUploadEvent) error
	PostUploadHook  func(ctx context.Context, event *PostUploadEvent) error
	PostPersistHook func(ctx context.Context, event *PostPersistEvent) error
)

// Dispatcher holds the hooks of each ingest stage and runs them in
// registration order. The first failing hook stops its stage.
type Dispatcher struct {
	mutex       sync.RWMutex
	preUpload   []PreUploadHook
	postUpload  []PostUploadHook
	postPersist []PostPersistHook
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) OnPreUpload(hook PreUploadHook) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.preUpload = append(d.preUpload, hook)
}

func (d *Dispatcher) OnPostUpload(hook PostUploadHook) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.postUpload = append(d.postUpload, hook)
}

func (d *Dispatcher) OnPostPersist(hook PostPersistHook) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.postPersist = append(d.postPersist, hook)
}

func (d *Dispatcher) dispatchPreUpload(ctx context.Context, event *PreUploadEvent) error {
	d.mutex.RLock()
	hooks := d.preUpload
	d.mutex.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatchPostUpload(ctx context.Context, event *PostUploadEvent) error {
	d.mutex.RLock()
	hooks := d.postUpload
	d.mutex.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatchPostPersist(ctx context.Context, event *PostPersistEvent) error {
	d.mutex.RLock()
	hooks := d.postPersist
	d.mutex.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
