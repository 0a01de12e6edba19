package server

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	written, err := generateConfig(&out, dir, false)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(filepath.Join(dir, "godraft.yaml"))
	require.NoError(t, err)

	var cfg config.BaseServerConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	defaults := config.GetServerDefault()
	assert.Equal(t, defaults.Storage, cfg.Storage)
	assert.Equal(t, defaults.Metadata, cfg.Metadata)
	assert.Equal(t, defaults.Retention, cfg.Retention)
	assert.Equal(t, defaults.Upload.MaxSize, cfg.Upload.MaxSize)
	assert.NoError(t, cfg.Validate())
}

func TestGenerateConfig_KeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "godraft.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("custom: true\n"), 0644))

	var out bytes.Buffer
	written, err := generateConfig(&out, dir, false)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Contains(t, out.String(), "Skipping")

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(data))

	written, err = generateConfig(&out, dir, true)
	require.NoError(t, err)
	assert.True(t, written)
}
