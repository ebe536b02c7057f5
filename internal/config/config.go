package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/validation"
)

const (
	appName   = "headlines"
	envPrefix = "HEADLINES"

	maxPageSize = 100
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Pager    PagerConfig    `mapstructure:"pager"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Media    MediaConfig    `mapstructure:"media"`
}

type APIConfig struct {
	Key               string        `mapstructure:"key"`
	BaseURL           string        `mapstructure:"base_url"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type DatabaseConfig struct {
	Driver  string        `mapstructure:"driver"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PagerConfig struct {
	PageSize              int    `mapstructure:"page_size"`
	DefaultCategory       string `mapstructure:"default_category"`
	DefaultKeyword        string `mapstructure:"default_keyword"`
	DiscardStaleResponses bool   `mapstructure:"discard_stale_responses"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

type MediaConfig struct {
	DefaultOpener string `mapstructure:"default_opener"`
	ImageViewer   string `mapstructure:"image_viewer"`
}

// DefaultPath is $XDG_CONFIG_HOME/headlines/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://newsapi.org/v2",
			HTTPTimeout:       30 * time.Second,
			UserAgent:         "headlines/1.0 (https://github.com/pders01/headlines)",
			RequestsPerMinute: 60,
		},
		Database: DatabaseConfig{
			Driver:  storage.DriverBolt,
			Path:    filepath.Join(xdg.DataHome, appName, "headlines.db"),
			Timeout: 1 * time.Second,
		},
		Pager: PagerConfig{
			PageSize:        20,
			DefaultCategory: news.DefaultCategory,
			DefaultKeyword:  news.DefaultKeyword,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Log: LogConfig{
			Level: "off",
		},
		Media: MediaConfig{
			DefaultOpener: getDefaultOpener(),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// settings flattens cfg into dotted viper keys. Durations become strings so
// the written TOML stays readable.
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"api.key":                 cfg.API.Key,
		"api.base_url":            cfg.API.BaseURL,
		"api.http_timeout":        cfg.API.HTTPTimeout.String(),
		"api.user_agent":          cfg.API.UserAgent,
		"api.requests_per_minute": cfg.API.RequestsPerMinute,

		"database.driver":  cfg.Database.Driver,
		"database.path":    cfg.Database.Path,
		"database.timeout": cfg.Database.Timeout.String(),

		"pager.page_size":               cfg.Pager.PageSize,
		"pager.default_category":        cfg.Pager.DefaultCategory,
		"pager.default_keyword":         cfg.Pager.DefaultKeyword,
		"pager.discard_stale_responses": cfg.Pager.DiscardStaleResponses,

		"ui.colors.primary":    cfg.UI.Colors.Primary,
		"ui.colors.secondary":  cfg.UI.Colors.Secondary,
		"ui.colors.accent":     cfg.UI.Colors.Accent,
		"ui.colors.background": cfg.UI.Colors.Background,
		"ui.colors.surface":    cfg.UI.Colors.Surface,
		"ui.colors.text":       cfg.UI.Colors.Text,
		"ui.colors.muted":      cfg.UI.Colors.Muted,
		"ui.colors.error":      cfg.UI.Colors.Error,
		"ui.colors.success":    cfg.UI.Colors.Success,

		"ui.article.max_description_length": cfg.UI.Article.MaxDescriptionLength,
		"ui.article.word_wrap_max_width":    cfg.UI.Article.WordWrapMaxWidth,
		"ui.article.word_wrap_min_width":    cfg.UI.Article.WordWrapMinWidth,

		"log.level": cfg.Log.Level,
		"log.path":  cfg.Log.Path,

		"metrics.listen": cfg.Metrics.Listen,

		"media.default_opener": cfg.Media.DefaultOpener,
		"media.image_viewer":   cfg.Media.ImageViewer,
	}
}

// Load reads configPath, or config.toml from the XDG config dir and the
// working directory when configPath is empty. A missing file is not an
// error. HEADLINES_* environment variables override file values, with
// dots in the key replaced by underscores (HEADLINES_API_KEY).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range settings(defaultConfig()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// Validate checks the values the rest of the program relies on and
// normalizes the API base URL.
func (c *Config) Validate() error {
	var errs []error

	base, err := validation.NewPermissiveURLValidator().ValidateAndNormalize(c.API.BaseURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	} else {
		c.API.BaseURL = strings.TrimRight(base, "/")
	}
	if c.API.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("api.requests_per_minute must not be negative"))
	}

	switch c.Database.Driver {
	case storage.DriverBolt, storage.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must be set"))
	}

	if c.Pager.PageSize < 1 || c.Pager.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("pager.page_size must be between 1 and %d", maxPageSize))
	}
	if _, err := news.NewPartition(news.SchemeCategory, c.Pager.DefaultCategory); err != nil {
		errs = append(errs, fmt.Errorf("pager.default_category: %w", err))
	}
	if _, err := news.NewPartition(news.SchemeKeyword, c.Pager.DefaultKeyword); err != nil {
		errs = append(errs, fmt.Errorf("pager.default_keyword: %w", err))
	}

	return errors.Join(errs...)
}

func Save(config *Config, path string) error {
	v := viper.New()
	for key, value := range settings(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
