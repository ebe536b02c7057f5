package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API = APIConfig{
		Key:               "test-key",
		BaseURL:           "http://127.0.0.1:0",
		HTTPTimeout:       5 * time.Second,
		UserAgent:         "headlines-test/1.0",
		RequestsPerMinute: 0,
	}
	cfg.Database = DatabaseConfig{
		Driver:  "bolt",
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	return cfg
}
