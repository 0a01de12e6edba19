package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/godraft/internal/api"
	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
)

type GoDraftAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	services *Services
	server   *http.Server
}

func NewAgent(cfg *config.BaseServerConfig) *GoDraftAgent {
	return &GoDraftAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("godraft", cfg.Log),
	}
}

func resolve[T any](ctx context.Context, sc *container.ServiceContainer) (T, error) {
	var zero T
	typ := reflect.TypeOf((*T)(nil)).Elem()

	ok, resolved := sc.ResolveByType(ctx, typ)
	if !ok {
		return zero, fmt.Errorf("service '%s' is not registered", typ)
	}

	service, ok := resolved.(T)
	if !ok {
		return zero, fmt.Errorf("resolved service is not a '%s'", typ)
	}
	return service, nil
}

func (gda *GoDraftAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	gda.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](gda.sc,
		container.With[log.LoggerService](),
		container.WithInstance(gda.log)))

	gda.log.Debug("Opening metadata store '%s'...", gda.cfg.Metadata.SQLite.Path)
	metadata, err := OpenMetadataStore(ctx, gda.cfg.Metadata)
	if err != nil {
		return err
	}

	gda.log.Debug("Registering 'MetadataStore'...")
	errs.Add(container.Register[store.SQLiteStore](gda.sc,
		container.With[store.MetadataStore](),
		container.WithInstance(metadata)))

	if err := errs.Errors(); err != nil {
		metadata.Close()
		return err
	}

	s, err := resolve[store.MetadataStore](ctx, gda.sc)
	if err != nil {
		return err
	}
	logger, err := log.Resolve(ctx, gda.sc, "")
	if err != nil {
		return err
	}

	services, err := NewServices(gda.cfg, s, logger)
	if err != nil {
		metadata.Close()
		return err
	}
	gda.services = services

	return nil
}

func (gda *GoDraftAgent) setupServer() error {
	maxSize, err := gda.cfg.Upload.MaxSizeBytes()
	if err != nil {
		return err
	}

	handler := api.NewHandler(gda.services.Ingest, gda.services.Drafts, gda.services.Store, gda.services.Blobs, gda.log, api.Settings{
		Library:   gda.cfg.Upload.UILibrary,
		MaxSize:   maxSize,
		MimeTypes: gda.cfg.Upload.MimeTypes,
		MaxFiles:  gda.cfg.Upload.MaxFiles,
	})
	registry := api.NewRegistry(gda.cfg.Upload.UILibrary, api.DefaultAdapters(handler)...)

	gda.server = &http.Server{
		Addr:         gda.cfg.HTTP.Address,
		Handler:      api.NewRouter(handler, registry),
		ReadTimeout:  config.ParseDuration(gda.cfg.HTTP.ReadTimeout, 30*time.Second),
		WriteTimeout: config.ParseDuration(gda.cfg.HTTP.WriteTimeout, 60*time.Second),
		IdleTimeout:  120 * time.Second,
	}
	return nil
}

func (gda *GoDraftAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gda.mutex.Lock()

	if err := gda.setupServices(ctx); err != nil {
		gda.mutex.Unlock()
		return err
	}

	if err := gda.setupServer(); err != nil {
		gda.mutex.Unlock()
		return err
	}

	gda.mutex.Unlock()

	errCh := make(chan error, 1)
	gda.wait.Add(1)
	go func() {
		defer gda.wait.Done()

		gda.log.Info("Listening on '%s'", gda.server.Addr)
		if err := gda.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if retention := gda.cfg.Retention; retention.Enabled {
		interval := config.ParseDuration(retention.Interval, time.Hour)
		gda.wait.Add(1)
		go func() {
			defer gda.wait.Done()
			gda.services.Sweeper.Run(ctx, interval, MaxAge(retention.MaxAgeDays), retention.Component)
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		gda.log.Error("HTTP server failed: %v", serveErr)
		cancel()
	}

	cleanupErr := gda.shutdown()

	gda.log.Info("Agent stopped")
	if closer, ok := gda.log.(io.Closer); ok {
		closer.Close()
	}

	if cleanupErr != nil {
		return cleanupErr
	}
	return serveErr
}

// shutdown stops the HTTP server, runs container cleanup, waits for the
// background loops and closes the metadata store. The store is closed even
// when cleanup fails.
func (gda *GoDraftAgent) shutdown() error {
	timeout, err := time.ParseDuration(gda.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if gda.server != nil {
		if err := gda.server.Shutdown(ctx); err != nil {
			gda.log.Warn("Failed to shut down HTTP server: %v", err)
		}
	}

	var cleanupErr error
	if err := gda.sc.Cleanup(ctx); err != nil {
		cleanupErr = fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	gda.wait.Wait()

	if gda.services != nil {
		if err := gda.services.Store.Close(); err != nil {
			gda.log.Warn("Failed to close metadata store: %v", err)
		}
	}

	return cleanupErr
}
