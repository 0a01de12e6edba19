// Package retention removes drafts that were never promoted and releases
// their blobs once no other record shares the content.
package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mwantia/godraft/pkg/blob"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godraft_retention_runs_total",
		Help: "Total number of retention sweeps",
	})

	sweepFilesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godraft_retention_files_deleted_total",
		Help: "Total number of expired draft records deleted",
	})

	sweepBlobsReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godraft_retention_blobs_released_total",
		Help: "Total number of blobs deleted by retention sweeps",
	})

	sweepErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godraft_retention_errors_total",
		Help: "Total number of records a retention sweep failed to process",
	})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "godraft_retention_duration_seconds",
		Help:    "Duration of retention sweeps in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

type Result struct {
	// Deleted is the number of removed records.
	Deleted int
	// BlobsReleased is the number of physically removed blobs.
	BlobsReleased int
	// Failed is the number of expired records kept for the next sweep.
	Failed   int
	Duration time.Duration
}

type Sweeper struct {
	store store.MetadataStore
	blobs *blob.Store
	log   log.LoggerService
	now   func() time.Time

	mutex sync.Mutex
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func NewSweeper(s store.MetadataStore, blobs *blob.Store, logger log.LoggerService, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		store: s,
		blobs: blobs,
		log:   logger.Named("retention"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	return sweeper
}

// Sweep deletes drafts of component created more than maxAge ago. A record
// whose blob cannot be released is kept and reported in the returned error;
// the remaining records are still processed.
func (s *Sweeper) Sweep(ctx context.Context, maxAge time.Duration, component string) (Result, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	result := Result{}

	cutoff := s.now().Add(-maxAge).Unix()
	files, err := s.store.ListFilesOlderThan(ctx, cutoff, component, models.DraftFileArea)
	if err != nil {
		return result, fmt.Errorf("failed to list expired drafts: %w", err)
	}

	batch := make([]uint, 0, len(files))
	for _, file := range files {
		batch = append(batch, file.ID)
	}

	// Hashes whose blob was handled during this sweep.
	seen := make(map[string]bool)
	deletable := make([]uint, 0, len(files))
	var errs []error

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if file.IsPlaceholder() || seen[file.ContentHash] {
			deletable = append(deletable, file.ID)
			continue
		}

		// Records of this batch do not keep a blob alive.
		others, err := s.store.CountSameContent(ctx, file.ContentHash, batch...)
		if err != nil {
			errs = append(errs, fmt.Errorf("file %d: failed to count references: %w", file.ID, err))
			continue
		}

		deleted, err := s.blobs.DeleteIfUnreferenced(file.ContentHash, others)
		if err != nil {
			errs = append(errs, fmt.Errorf("file %d: %w", file.ID, err))
			continue
		}
		if deleted {
			result.BlobsReleased++
		}

		seen[file.ContentHash] = true
		deletable = append(deletable, file.ID)
	}

	if len(deletable) > 0 {
		if err := s.store.DeleteFiles(ctx, deletable); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete expired drafts: %w", err))
			deletable = nil
		}
	}

	result.Deleted = len(deletable)
	result.Failed = len(files) - result.Deleted
	result.Duration = time.Since(start)

	sweepRunsTotal.Inc()
	sweepFilesDeletedTotal.Add(float64(result.Deleted))
	sweepBlobsReleasedTotal.Add(float64(result.BlobsReleased))
	sweepErrorsTotal.Add(float64(result.Failed))
	sweepDurationSeconds.Observe(result.Duration.Seconds())

	return result, errors.Join(errs...)
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval, maxAge time.Duration, component string) {
	s.log.Info("Retention sweeper started (interval %s, max age %s, component '%s')", interval, maxAge, component)

	s.runOnce(ctx, maxAge, component)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, maxAge, component)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context, maxAge time.Duration, component string) {
	result, err := s.Sweep(ctx, maxAge, component)
	if err != nil {
		s.log.Error("Retention sweep finished with errors: %v", err)
	}
	if result.Deleted > 0 || result.Failed > 0 {
		s.log.Info("Retention sweep deleted %d drafts, released %d blobs, kept %d (%s)",
			result.Deleted, result.BlobsReleased, result.Failed, result.Duration)
		return
	}
	s.log.Debug("Retention sweep found nothing to delete")
}
