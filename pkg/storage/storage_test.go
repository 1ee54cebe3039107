package storage_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/underwriter/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfigFinalize(t *testing.T) {
	t.Run("disabled needs no credentials", func(t *testing.T) {
		cfg := &storage.Config{}
		require.NoError(t, cfg.Finalize(nil))
		assert.Equal(t, "decisions", cfg.ContainerName)
		assert.Equal(t, "decisions", cfg.Prefix)
	})

	t.Run("enabled requires a credential source", func(t *testing.T) {
		cfg := &storage.Config{Enabled: true}
		assert.Error(t, cfg.Finalize(nil))
	})

	t.Run("env enables with account url", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_ENABLED", "true")
		t.Setenv("TEST_STORAGE_ACCOUNT_URL", "https://credit.blob.core.windows.net/")

		cfg := &storage.Config{}
		err := cfg.Finalize(&storage.Env{
			Enabled:    "TEST_STORAGE_ENABLED",
			AccountURL: "TEST_STORAGE_ACCOUNT_URL",
		})

		require.NoError(t, err)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "https://credit.blob.core.windows.net/", cfg.AccountURL)
	})
}

func TestConfigMerge(t *testing.T) {
	base := &storage.Config{ContainerName: "decisions"}
	base.Merge(&storage.Config{Enabled: true, ConnectionString: "UseDevelopmentStorage=true"})

	assert.True(t, base.Enabled)
	assert.Equal(t, "decisions", base.ContainerName)
	assert.Equal(t, "UseDevelopmentStorage=true", base.ConnectionString)
}

func TestDisabledStore(t *testing.T) {
	cfg := &storage.Config{}
	require.NoError(t, cfg.Finalize(nil))

	store, err := storage.New(cfg, discard())
	require.NoError(t, err)

	ctx := context.Background()
	key := store.Key("0b6c", "20260101T000000Z.json")

	assert.False(t, store.Enabled())
	assert.Equal(t, "decisions/0b6c/20260101T000000Z.json", key)
	assert.NoError(t, store.Put(ctx, key, []byte(`{}`), "application/json"))

	assert.ErrorIs(t, store.Put(ctx, "", nil, "application/json"), storage.ErrEmptyKey)
	assert.ErrorIs(t, store.Put(ctx, "decisions/../secrets", nil, "application/json"), storage.ErrInvalidKey)
}
