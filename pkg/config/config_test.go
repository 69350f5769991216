package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60*time.Second, time.Duration(cfg.Request.Timeout))
	assert.Equal(t, "WARN", cfg.Log.Level)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, time.Duration(cfg.Request.Timeout))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
request:
  timeout: 2m
  user_agent: "my-bot/1.0"
log:
  level: DEBUG
quickstatements:
  username: Magnus
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.Request.Timeout))
	assert.Equal(t, "my-bot/1.0", cfg.Request.UserAgent)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "Magnus", cfg.QuickStatements.Username)
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("WIKITOOLS_QS_TOKEN", "sekrit")
	t.Setenv("WIKITOOLS_QS_USER", "Magnus")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sekrit", cfg.QuickStatements.Token)
	assert.Equal(t, "Magnus", cfg.QuickStatements.Username)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
