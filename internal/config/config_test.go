package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{
		"PORT", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "GEMINI_API_KEY",
		"CODEFORCES_API_URL", "NODE_API_URL", "LEETCODE_PROFILE_API_URL", "COMPETE_API_URL",
		"CACHE_TTL", "HTTP_TIMEOUT", "LOG_LEVEL", "TAXONOMY_FILE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultCodeforcesAPIURL, cfg.CodeforcesAPIURL)
	assert.Equal(t, DefaultNodeAPIURL, cfg.NodeAPIURL)
	assert.Equal(t, DefaultCompeteAPIURL, cfg.CompeteAPIURL)
	assert.Equal(t, time.Hour, cfg.CacheTTL.Std())
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout.Std())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "600")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout.Std())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	_, err := Load()
	assert.ErrorContains(t, err, "PORT")

	t.Setenv("PORT", "")
	t.Setenv("CACHE_TTL", "forever")
	_, err = Load()
	assert.ErrorContains(t, err, "CACHE_TTL")
}

func TestLoadWithFile_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"port": 6000, "cache_ttl": "2m", "log_level": "warn"}`), 0644))

	cfg, err := LoadWithFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DefaultCodeforcesAPIURL, cfg.CodeforcesAPIURL)
}

func TestLoadFile_ValidJSON(t *testing.T) {
	content := `{
		"port": 3001,
		"database_url": "postgres://localhost/algomentor",
		"codeforces_api_url": "http://cf.test/api/",
		"http_timeout": 12
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFile(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "postgres://localhost/algomentor", cfg.DatabaseURL)
	assert.Equal(t, "http://cf.test/api/", cfg.CodeforcesAPIURL)
	assert.Equal(t, 12*time.Second, cfg.HTTPTimeout.Std())
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadFile(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadFile_FileNotFound(t *testing.T) {
	cfg, err := LoadFile("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_EmptyPath(t *testing.T) {
	cfg, err := LoadFile("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "bad port", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "negative ttl", cfg: Config{CacheTTL: Duration(-time.Second)}, wantErr: "cache_ttl"},
		{name: "negative timeout", cfg: Config{HTTPTimeout: Duration(-time.Second)}, wantErr: "http_timeout"},
		{name: "bad url", cfg: Config{NodeAPIURL: "localhost:3000"}, wantErr: "node_api_url"},
		{name: "missing taxonomy", cfg: Config{TaxonomyFile: "/nonexistent/taxonomy.yaml"}, wantErr: "taxonomy file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		Port:       9000,
		NodeAPIURL: "http://proxy.test",
	}

	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "http://proxy.test", merged.NodeAPIURL)
	assert.Equal(t, DefaultCodeforcesAPIURL, merged.CodeforcesAPIURL)
	assert.Equal(t, Duration(DefaultCacheTTL), merged.CacheTTL)
	assert.Equal(t, DefaultLogLevel, merged.LogLevel)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Port: 1, GeminiAPIKey: "k"}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, 1, merged.Port)
	assert.Equal(t, "k", merged.GeminiAPIKey)
	assert.Empty(t, merged.CodeforcesAPIURL)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`45`), &d))
	assert.Equal(t, 45*time.Second, d.Std())

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, `"1h0m0s"`, string(out))
}
