package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 1500*time.Millisecond, cfg.UnitDelay())
	assert.Equal(t, 5*time.Minute, cfg.Timeout())
	assert.Equal(t, 64, cfg.ProjectCacheSize)
	assert.Equal(t, "tmp", cfg.WorkspaceDir)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("UNIT_DELAY_MS: 250\nWORKSPACE_DIR: /srv/sites\n"), 0o644))
	t.Setenv("COMPLETION_ENDPOINT", "http://localhost:9000/api/complete")
	t.Setenv("USE_LLM_PLANNER", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.UnitDelay())
	assert.Equal(t, "/srv/sites", cfg.WorkspaceDir)
	assert.Equal(t, "http://localhost:9000/api/complete", cfg.CompletionEndpoint)
	assert.True(t, cfg.UseLLMPlanner)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("PROJECT_CACHE_SIZE", "0")
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
