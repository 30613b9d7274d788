package config_test

import (
	"kanbanBoard/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.LoadWithPath(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Repository.Type)
	assert.Equal(t, "db.json", cfg.File.Path)
	assert.Equal(t, 30*time.Second, cfg.File.FlushInterval)
	assert.Equal(t, 10, cfg.Listing.DefaultLimit)
	assert.Equal(t, "0.0.0.0:4000", cfg.GetServerAddr())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
  cors_origins: ["https://board.example"]
repository:
  type: sqlite
sqlite:
  path: /tmp/board.db
cache:
  enabled: true
  ttl: 2m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Setenv("KANBAN_SERVER_PORT", "7070")
	t.Setenv("KANBAN_LISTING_DEFAULT_LIMIT", "25")

	cfg, err := config.LoadWithPath(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"https://board.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Repository.Type)
	assert.Equal(t, "/tmp/board.db", cfg.SQLite.Path)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 25, cfg.Listing.DefaultLimit)
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kanban.yml")
	require.NoError(t, os.WriteFile(path, []byte("repository:\n  type: MEMORY\n"), 0o644))

	cfg, err := config.LoadWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Repository.Type)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"KANBAN_SERVER_PORT": "70000"}},
		{"unknown repository", map[string]string{"KANBAN_REPOSITORY_TYPE": "mongo"}},
		{"postgres without url", map[string]string{"KANBAN_REPOSITORY_TYPE": "postgres"}},
		{"default above max", map[string]string{"KANBAN_LISTING_DEFAULT_LIMIT": "500"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadWithPath(t.TempDir())
			assert.Error(t, err)
		})
	}
}
