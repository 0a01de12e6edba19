package agent

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/mwantia/godraft/internal/draft"
	"github.com/mwantia/godraft/internal/ingest"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.BaseServerConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetServerDefault()
	cfg.Metadata.SQLite.Path = filepath.Join(dir, "godraft.db")
	cfg.Storage.Path = filepath.Join(dir, "files")
	cfg.Upload.MaxSize = "1KiB"
	cfg.Upload.MimeTypes = []string{"text/plain"}
	return &cfg
}

func TestOpenMetadataStore(t *testing.T) {
	cfg := testConfig(t)

	s, err := OpenMetadataStore(context.Background(), cfg.Metadata)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Health(context.Background()))

	cfg.Metadata.Type = "postgres"
	_, err = OpenMetadataStore(context.Background(), cfg.Metadata)
	assert.Error(t, err)
}

func TestNewServices(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	s, err := OpenMetadataStore(ctx, cfg.Metadata)
	require.NoError(t, err)
	defer s.Close()

	logger := log.NewLoggerServiceWithWriter("test", config.LogServerConfig{Level: "ERROR"}, io.Discard)
	services, err := NewServices(cfg, s, logger)
	require.NoError(t, err)

	_, err = services.Ingest.IngestDraft(ctx, ingest.Upload{
		Reader:   strings.NewReader("<svg/>"),
		Filename: "image.svg",
		MimeType: "image/svg+xml",
		Size:     6,
	}, 1, nil)
	assert.True(t, ingest.IsValidation(err))

	file, err := services.Ingest.IngestDraft(ctx, ingest.Upload{
		Reader:   strings.NewReader("hello1234\n"),
		Filename: "hello.txt",
		MimeType: "text/plain",
		Size:     10,
	}, 1, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Storage.Path, filepath.FromSlash(file.ContentHash[0:2]+"/"+file.ContentHash[2:4]+"/"+file.ContentHash[4:6]+"/"+file.ContentHash)))

	ids, err := services.Binder.Commit(ctx, []int64{file.ItemID}, nil, draft.Destination{
		Component: "profile",
		FileArea:  "avatar",
		ItemID:    42,
		ContextID: 7,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{file.ID}, ids)

	result, err := services.Sweeper.Sweep(ctx, time.Hour, "user")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Deleted)
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, MaxAge(7))
}

func TestSetupServices_ClosesStoreOnFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "ERROR"
	cfg.Storage.Path = ""

	gda := NewAgent(cfg)
	ctx := context.Background()

	require.Error(t, gda.setupServices(ctx))

	s, err := resolve[store.MetadataStore](ctx, gda.sc)
	require.NoError(t, err)
	assert.Error(t, s.Health(ctx), "metadata store must be closed")
}

func TestShutdown_ClosesStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "ERROR"
	cfg.ShutdownTimeout = "1s"

	gda := NewAgent(cfg)
	ctx := context.Background()
	require.NoError(t, gda.setupServices(ctx))

	require.NoError(t, gda.shutdown())
	assert.Error(t, gda.services.Store.Health(ctx), "metadata store must be closed")
}
