package mintclient_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/minthcm-client/pkg/mintclient"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minthcm", "config.yml")

	original := &minthcm.Config{
		BaseURL:      "https://hcm.example.com/legacy/Api/V8",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenPath:    "/tmp/AccessToken.json",
		HTTPTimeout:  45 * time.Second,
		RetryMax:     2,
		RateLimit:    5,
		LogoutOnExit: true,
		NATS: &minthcm.NATSConfig{
			URL:    "nats://127.0.0.1:4222",
			Bucket: "tokens",
		},
	}

	require.NoError(t, mintclient.SaveConfig(path, original))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := mintclient.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original.BaseURL, loaded.BaseURL)
	assert.Equal(t, original.ClientID, loaded.ClientID)
	assert.Equal(t, original.ClientSecret, loaded.ClientSecret)
	assert.Equal(t, original.TokenPath, loaded.TokenPath)
	assert.Equal(t, original.HTTPTimeout, loaded.HTTPTimeout)
	assert.Equal(t, original.RetryMax, loaded.RetryMax)
	assert.InDelta(t, original.RateLimit, loaded.RateLimit, 0.001)
	assert.True(t, loaded.LogoutOnExit)
	require.NotNil(t, loaded.NATS)
	assert.Equal(t, "nats://127.0.0.1:4222", loaded.NATS.URL)
	assert.Equal(t, "tokens", loaded.NATS.Bucket)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.example.com/Api/V8\nclient_id: file-id\n"), 0o600))

	t.Setenv("MINTHCM_CLIENT_ID", "env-id")
	t.Setenv("MINTHCM_CLIENT_SECRET", "env-secret")

	config, err := mintclient.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com/Api/V8", config.BaseURL)
	assert.Equal(t, "env-id", config.ClientID)
	assert.Equal(t, "env-secret", config.ClientSecret)
	assert.Nil(t, config.NATS)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := mintclient.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestSaveConfig_RequiresPath(t *testing.T) {
	t.Parallel()

	err := mintclient.SaveConfig("", &minthcm.Config{})
	require.ErrorIs(t, err, mintclient.ErrConfigPathRequired)
}
