package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	want, ok := expected[runtime.GOOS]
	if !ok {
		want = "open"
	}
	assert.Equal(t, want, getDefaultOpener())
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "https://newsapi.org/v2", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.HTTPTimeout)
	assert.Equal(t, 60, cfg.API.RequestsPerMinute)
	assert.NotEmpty(t, cfg.API.UserAgent)

	assert.Equal(t, "bolt", cfg.Database.Driver)
	assert.Equal(t, 1*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "headlines.db", filepath.Base(cfg.Database.Path))

	assert.Equal(t, 20, cfg.Pager.PageSize)
	assert.Equal(t, "general", cfg.Pager.DefaultCategory)
	assert.Equal(t, "news", cfg.Pager.DefaultKeyword)
	assert.False(t, cfg.Pager.DiscardStaleResponses)

	assert.Equal(t, 150, cfg.UI.Article.MaxDescriptionLength)
	assert.Equal(t, "off", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Listen)
	assert.NotEmpty(t, cfg.Media.DefaultOpener)

	require.NoError(t, cfg.Validate())
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.Equal(t, "config.toml", filepath.Base(path))
	assert.Equal(t, "headlines", filepath.Base(filepath.Dir(path)))
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[api]
key = "abc123"
base_url = "https://news.internal.dev/v2"
http_timeout = "10s"
requests_per_minute = 30

[database]
driver = "sqlite"
path = "/tmp/headlines-test.db"
timeout = "5s"

[pager]
page_size = 50
default_category = "sports"
discard_stale_responses = true

[ui.colors]
primary = "#FF0000"

[metrics]
listen = ":9090"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.API.Key)
	assert.Equal(t, "https://news.internal.dev/v2", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.HTTPTimeout)
	assert.Equal(t, 30, cfg.API.RequestsPerMinute)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/headlines-test.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, 50, cfg.Pager.PageSize)
	assert.Equal(t, "sports", cfg.Pager.DefaultCategory)
	assert.True(t, cfg.Pager.DiscardStaleResponses)
	assert.Equal(t, "#FF0000", cfg.UI.Colors.Primary)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)

	// untouched keys keep their defaults
	assert.Equal(t, "news", cfg.Pager.DefaultKeyword)
	assert.Equal(t, "#4ECDC4", cfg.UI.Colors.Secondary)
	assert.NotEmpty(t, cfg.API.UserAgent)
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[api]\nkey = \"from-file\"\n"), 0o644))

	t.Setenv("HEADLINES_API_KEY", "from-env")
	t.Setenv("HEADLINES_PAGER_PAGE_SIZE", "10")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Key)
	assert.Equal(t, 10, cfg.Pager.PageSize)
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[api\nkey ="), 0o644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, ":memory:", expandPath(":memory:"))
	assert.Equal(t, filepath.Join(home, "news.db"), expandPath("~/news.db"))
	assert.True(t, filepath.IsAbs(expandPath("relative/news.db")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"localhost base url", func(c *Config) { c.API.BaseURL = "http://localhost:8080/v2" }, ""},
		{"bad base url", func(c *Config) { c.API.BaseURL = "https://news<script>.dev" }, "api.base_url"},
		{"negative rate", func(c *Config) { c.API.RequestsPerMinute = -1 }, "requests_per_minute"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"page size too big", func(c *Config) { c.Pager.PageSize = 500 }, "page_size"},
		{"page size zero", func(c *Config) { c.Pager.PageSize = 0 }, "page_size"},
		{"unknown category", func(c *Config) { c.Pager.DefaultCategory = "weather" }, "default_category"},
		{"empty keyword", func(c *Config) { c.Pager.DefaultKeyword = " " }, "default_keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := TestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NormalizesBaseURL(t *testing.T) {
	cfg := TestConfig()
	cfg.API.BaseURL = "  https://newsapi.org/v2/ "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://newsapi.org/v2", cfg.API.BaseURL)
}

func TestSave(t *testing.T) {
	cfg := TestConfig()
	cfg.Database.Path = "/test/path.db"
	cfg.API.UserAgent = "test-save-agent"
	cfg.API.HTTPTimeout = 45 * time.Second
	cfg.Pager.DiscardStaleResponses = true
	cfg.Media.DefaultOpener = "test-opener"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	require.NoError(t, Save(cfg, savePath))

	loaded, err := Load(savePath)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
	assert.Equal(t, cfg.API.UserAgent, loaded.API.UserAgent)
	assert.Equal(t, cfg.API.HTTPTimeout, loaded.API.HTTPTimeout)
	assert.True(t, loaded.Pager.DiscardStaleResponses)
	assert.Equal(t, "test-opener", loaded.Media.DefaultOpener)
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	require.NoError(t, GenerateDefaultConfig(configPath))

	raw, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, toml.Unmarshal(raw, &doc))
	for _, section := range []string{"api", "database", "pager", "ui", "log", "media"} {
		assert.Contains(t, doc, section)
	}

	api, ok := doc["api"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "30s", api["http_timeout"])

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Pager.PageSize)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "headlines-test/1.0", cfg.API.UserAgent)
	assert.Equal(t, 0, cfg.API.RequestsPerMinute)
	assert.NoError(t, cfg.Validate())
}
