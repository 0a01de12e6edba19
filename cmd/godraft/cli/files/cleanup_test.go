package files

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/mwantia/godraft/internal/retention"
	"github.com/mwantia/godraft/pkg/blob"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/db/store/storetest"
	"github.com/mwantia/godraft/pkg/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSweeper(t *testing.T) (*retention.Sweeper, *store.SQLiteStore, *blob.Store) {
	t.Helper()

	s := storetest.New(t)
	blobs, err := blob.New(afero.NewMemMapFs(), "/storage")
	require.NoError(t, err)

	logger := log.NewLoggerServiceWithWriter("test", config.LogServerConfig{Level: "ERROR"}, io.Discard)
	return retention.NewSweeper(s, blobs, logger), s, blobs
}

func addDraft(t *testing.T, s *store.SQLiteStore, blobs *blob.Store, content string, age time.Duration) *models.File {
	t.Helper()

	result, err := blobs.Write(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	created := time.Now().Add(-age).Unix()
	file := &models.File{
		ContentHash:  result.Hash,
		ContextID:    1,
		Component:    models.DraftComponent,
		FileArea:     models.DraftFileArea,
		ItemID:       1,
		FilePath:     "/",
		FileName:     "draft.txt",
		FileSize:     result.Size,
		TimeCreated:  created,
		TimeModified: created,
	}
	require.NoError(t, s.CreateFile(context.Background(), file))
	return file
}

func TestRunCleanup_RejectsZeroDays(t *testing.T) {
	sweeper, s, blobs := newSweeper(t)
	old := addDraft(t, s, blobs, "old", 30*24*time.Hour)

	var out bytes.Buffer
	deleted, err := runCleanup(context.Background(), &out, sweeper, 0, models.DraftComponent)
	assert.ErrorIs(t, err, ErrInvalidDays)
	assert.Equal(t, 0, deleted)

	_, err = s.GetFile(context.Background(), old.ID)
	assert.NoError(t, err)
	assert.True(t, blobs.Exists(old.ContentHash))
}

func TestRunCleanup_NothingToDelete(t *testing.T) {
	sweeper, s, blobs := newSweeper(t)
	addDraft(t, s, blobs, "recent", 24*time.Hour)

	var out bytes.Buffer
	deleted, err := runCleanup(context.Background(), &out, sweeper, 7, models.DraftComponent)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Contains(t, out.String(), "No files to delete were found")
}

func TestRunCleanup_DeletesOldDrafts(t *testing.T) {
	sweeper, s, blobs := newSweeper(t)
	old := addDraft(t, s, blobs, "old", 8*24*time.Hour)
	recent := addDraft(t, s, blobs, "recent", 24*time.Hour)

	var out bytes.Buffer
	deleted, err := runCleanup(context.Background(), &out, sweeper, 7, models.DraftComponent)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Contains(t, out.String(), "Deleted files: 1")

	_, err = s.GetFile(context.Background(), old.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetFile(context.Background(), recent.ID)
	assert.NoError(t, err)
}

func TestCleanupDraftCommand_Flags(t *testing.T) {
	cmd := NewCleanupDraftCommand()

	days, err := cmd.Flags().GetInt("days")
	require.NoError(t, err)
	assert.Equal(t, 7, days)

	component, err := cmd.Flags().GetString("component")
	require.NoError(t, err)
	assert.Equal(t, "user", component)

	assert.Equal(t, "d", cmd.Flags().Lookup("days").Shorthand)
	assert.Equal(t, "c", cmd.Flags().Lookup("component").Shorthand)

	cmd.SetArgs([]string{"--days", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.ErrorIs(t, cmd.Execute(), ErrInvalidDays)
}

func TestPrintFiles(t *testing.T) {
	files := []models.File{
		{ID: 1, FileName: "a.txt", FileSize: 2048, ContentHash: blob.HashString("a"), MimeType: models.StringPtr("text/plain"), TimeCreated: 0},
		{ID: 2, FileName: "", FileSize: 0},
	}

	var out bytes.Buffer
	require.NoError(t, printFiles(&out, files, true, false))
	assert.Contains(t, out.String(), "2.0 KiB")
	assert.Contains(t, out.String(), "a.txt")

	out.Reset()
	require.NoError(t, printFiles(&out, files, false, true))
	assert.Contains(t, out.String(), "2048")
	assert.Contains(t, out.String(), "text/plain")
	assert.Contains(t, out.String(), "-")
}
