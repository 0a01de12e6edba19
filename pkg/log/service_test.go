package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Debug, Parse("debug"))
	assert.Equal(t, Warn, Parse(" WARNING "))
	assert.Equal(t, Error, Parse("error"))
	assert.Equal(t, Info, Parse("nonsense"))
	assert.Equal(t, "WARN", Warn.String())
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("godraft", config.LogServerConfig{Level: "WARN"}, &buf)

	logger.Info("hidden %d", 1)
	logger.Warn("visible %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "[godraft]")
}

func TestLogger_NamedJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("godraft", config.LogServerConfig{Level: "DEBUG", JSON: true}, &buf)

	logger.Named("retention").Debug("swept %d drafts", 3)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "godraft/retention", entry.Service)
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "swept 3 drafts", entry.Message)
}

func TestLogger_KeepsPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("", config.LogServerConfig{Level: "INFO"}, &buf)

	logger.Info("100% done")
	assert.Contains(t, buf.String(), "100% done")
}
