package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/filebox/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty endpoint gets default", func(t *testing.T) {
		cfg := &clientcli.Config{}
		got := cfg.WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, got.Endpoint)
		assert.Empty(t, cfg.Endpoint, "original must not be mutated")
	})

	t.Run("endpoint kept", func(t *testing.T) {
		cfg := &clientcli.Config{Endpoint: "http://files.internal:9000"}
		assert.Equal(t, "http://files.internal:9000", cfg.WithDefaults().Endpoint)
	})
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	assert.NoError(t, (&clientcli.Config{APIKey: "k"}).ValidateWithAuth())
	assert.ErrorIs(t, (&clientcli.Config{}).ValidateWithAuth(), clientcli.ErrAPIKeyRequired)
}

func TestConfigFile_Profiles(t *testing.T) {
	cf := &clientcli.ConfigFile{}

	_, err := cf.GetProfile("")
	assert.ErrorIs(t, err, clientcli.ErrNoProfiles)

	require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "local", Endpoint: "http://localhost:8000", APIKey: "a"}))
	require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "prod", Endpoint: "https://files.example.com", APIKey: "b"}))
	assert.ErrorIs(t, cf.AddProfile(clientcli.Profile{Name: "prod"}), clientcli.ErrProfileExists)

	// First profile is the default until one is marked.
	p, err := cf.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name)

	require.NoError(t, cf.SetDefault("prod"))
	p, err = cf.GetDefaultProfile()
	require.NoError(t, err)
	assert.Equal(t, "prod", p.Name)

	require.NoError(t, cf.UpdateProfile(clientcli.Profile{Name: "prod", Endpoint: "https://new.example.com", APIKey: "c", Default: true}))
	p, err = cf.GetProfile("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", p.Endpoint)

	assert.ErrorIs(t, cf.UpdateProfile(clientcli.Profile{Name: "ghost"}), clientcli.ErrProfileNotFound)
	assert.ErrorIs(t, cf.SetDefault("ghost"), clientcli.ErrProfileNotFound)

	require.NoError(t, cf.RemoveProfile("local"))
	assert.Equal(t, []string{"prod"}, cf.ProfileNames())
	assert.ErrorIs(t, cf.RemoveProfile("local"), clientcli.ErrProfileNotFound)

	_, err = cf.GetProfile("local")
	assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
}

func TestConfigFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:8000", APIKey: "s3cret", Default: true},
	}}
	require.NoError(t, cf.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_key: s3cret")

	loaded, err := clientcli.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cf, loaded)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := clientcli.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [yaml: content"), 0o600))
	_, err = clientcli.LoadConfigFile(path)
	assert.Error(t, err)
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", APIKey: "key1"},
				{Endpoint: "http://b.com"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", APIKey: "key1"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", APIKey: "key1"},
				{Endpoint: "", APIKey: ""},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", APIKey: "key1"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{APIKey: "key2"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", APIKey: "key2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientcli.MergeConfig(tt.configs...))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FILEBOX_ENDPOINT", "http://test.example.com")
	t.Setenv("FILEBOX_API_KEY", "env-key")
	t.Setenv("FILEBOX_PROFILE", "staging")
	t.Setenv("FILEBOX_CONFIG", "/etc/filebox/client.yaml")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://test.example.com", cfg.Endpoint)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "staging", clientcli.ProfileFromEnv())
	assert.Equal(t, "/etc/filebox/client.yaml", clientcli.ConfigPathFromEnv())
}

func writeProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:8000", APIKey: "local-key"},
		{Name: "prod", Endpoint: "https://files.example.com", APIKey: "prod-key", Default: true},
	}}
	require.NoError(t, cf.Save(path))
	return path
}

func clearClientEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"FILEBOX_ENDPOINT", "FILEBOX_API_KEY", "FILEBOX_PROFILE", "FILEBOX_CONFIG"} {
		t.Setenv(key, "")
	}
}

func TestResolve(t *testing.T) {
	t.Run("default profile", func(t *testing.T) {
		clearClientEnv(t)
		cfg, err := clientcli.Resolve(writeProfiles(t), "", nil)
		require.NoError(t, err)
		assert.Equal(t, &clientcli.Config{Endpoint: "https://files.example.com", APIKey: "prod-key"}, cfg)
	})

	t.Run("named profile", func(t *testing.T) {
		clearClientEnv(t)
		cfg, err := clientcli.Resolve(writeProfiles(t), "local", nil)
		require.NoError(t, err)
		assert.Equal(t, "local-key", cfg.APIKey)
	})

	t.Run("profile from env", func(t *testing.T) {
		clearClientEnv(t)
		t.Setenv("FILEBOX_PROFILE", "local")
		cfg, err := clientcli.Resolve(writeProfiles(t), "", nil)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
	})

	t.Run("env overrides profile and flags override env", func(t *testing.T) {
		clearClientEnv(t)
		t.Setenv("FILEBOX_API_KEY", "env-key")
		t.Setenv("FILEBOX_ENDPOINT", "http://env:8000")
		cfg, err := clientcli.Resolve(writeProfiles(t), "", &clientcli.Config{Endpoint: "http://flag:8000"})
		require.NoError(t, err)
		assert.Equal(t, "http://flag:8000", cfg.Endpoint)
		assert.Equal(t, "env-key", cfg.APIKey)
	})

	t.Run("missing file uses env and defaults", func(t *testing.T) {
		clearClientEnv(t)
		t.Setenv("FILEBOX_API_KEY", "env-key")
		cfg, err := clientcli.Resolve(filepath.Join(t.TempDir(), "absent.yaml"), "", nil)
		require.NoError(t, err)
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
		assert.Equal(t, "env-key", cfg.APIKey)
	})

	t.Run("missing file with named profile", func(t *testing.T) {
		clearClientEnv(t)
		_, err := clientcli.Resolve(filepath.Join(t.TempDir(), "absent.yaml"), "prod", nil)
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("unknown profile", func(t *testing.T) {
		clearClientEnv(t)
		_, err := clientcli.Resolve(writeProfiles(t), "ghost", nil)
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("config path from env", func(t *testing.T) {
		clearClientEnv(t)
		t.Setenv("FILEBOX_CONFIG", writeProfiles(t))
		cfg, err := clientcli.Resolve("", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "prod-key", cfg.APIKey)
	})
}
