package files

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/db/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationRow(t *testing.T, out string) []string {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	return strings.Fields(lines[1])
}

func TestRunMigrate_RollbackAndReapply(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runMigrate(ctx, &out, s.DB(), true))
	assert.Equal(t, []string{"1", "false"}, migrationRow(t, out.String())[:2])
	assert.False(t, s.DB().Migrator().HasTable(&models.File{}))

	out.Reset()
	require.NoError(t, runMigrate(ctx, &out, s.DB(), false))
	assert.Equal(t, []string{"1", "true"}, migrationRow(t, out.String())[:2])
	assert.True(t, s.DB().Migrator().HasTable(&models.File{}))
}

func TestRunMigrate_RollbackWithNothingApplied(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runMigrate(ctx, &out, s.DB(), true))
	assert.Error(t, runMigrate(ctx, &out, s.DB(), true))
}

func TestMigrateCommand_RollbackFlag(t *testing.T) {
	cmd := NewMigrateCommand()

	flag := cmd.Flags().Lookup("rollback")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
