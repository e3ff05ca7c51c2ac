package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetgen/internal/gateway/config"
	"widgetgen/internal/snapshot"
)

func baseConfig() *config.Config {
	return &config.Config{
		Port: ":0",
		Env:  "test",
		LLM:  config.LLMConfig{Provider: "fake", Retries: 1},
		Render: config.RenderConfig{
			CacheEntries: 16,
		},
		SessionCache: config.SessionCacheConfig{SessionEntries: 16, MessageEntries: 16},
	}
}

func TestNewWithConfigInMemory(t *testing.T) {
	a, err := NewWithConfig(context.Background(), baseConfig())
	require.NoError(t, err)
	require.NotNil(t, a.server)
	require.NoError(t, a.close(context.Background()))
}

func TestNewWithConfigSQLiteAndAppImport(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "apps.json")
	require.NoError(t, os.WriteFile(catalog, []byte(`{"1": {"title": "Rain Radar"}}`), 0o644))

	cfg := baseConfig()
	cfg.DatabaseURL = "sqlite:" + filepath.Join(dir, "widgets.db")
	cfg.AppsImportPath = catalog

	a, err := NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, a.close(context.Background()))
}

func TestNewLLMClientProviders(t *testing.T) {
	ctx := context.Background()

	c, err := newLLMClient(ctx, config.LLMConfig{Provider: "fake", Retries: 1})
	require.NoError(t, err)
	assert.Equal(t, "FakeLLM", c.Name())

	c, err = newLLMClient(ctx, config.LLMConfig{Provider: "compat", BaseURL: "http://localhost:1", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "Compat:m", c.Name())

	_, err = newLLMClient(ctx, config.LLMConfig{Provider: "gemini"})
	require.Error(t, err)
	_, err = newLLMClient(ctx, config.LLMConfig{Provider: "compat"})
	require.Error(t, err)
	_, err = newLLMClient(ctx, config.LLMConfig{Provider: "other"})
	require.Error(t, err)
}

func TestChooseSnapshotStore(t *testing.T) {
	cfg := baseConfig()
	s, err := chooseSnapshotStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.MemoryStore{}, s)

	cfg.Artifact = config.ArtifactConfig{Enabled: true, Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "widgets"}
	s, err = chooseSnapshotStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.S3Store{}, s)
}
