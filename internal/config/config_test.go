package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Docs.MinChunkSize != 2000 {
		t.Errorf("min chunk size = %d, want 2000", cfg.Docs.MinChunkSize)
	}
	if cfg.Chat.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Chat.TopK)
	}
	if cfg.Chat.HistoryLimit != 10 {
		t.Errorf("history limit = %d, want 10", cfg.Chat.HistoryLimit)
	}
	if cfg.Index.PacingDelay != 100*time.Millisecond {
		t.Errorf("pacing delay = %v, want 100ms", cfg.Index.PacingDelay)
	}
	if cfg.Index.MinSuccessRatio != 0 {
		t.Errorf("min success ratio = %f, want 0", cfg.Index.MinSuccessRatio)
	}
	if cfg.AI.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.AI.MaxRetries)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"zero chunk size", func(c *Config) { c.Docs.MinChunkSize = 0 }, true},
		{"missing embedding model", func(c *Config) { c.AI.EmbeddingModel = "" }, true},
		{"missing chat model", func(c *Config) { c.AI.ChatModel = "" }, true},
		{"negative temperature", func(c *Config) { c.AI.Temperature = -0.1 }, true},
		{"temperature too high", func(c *Config) { c.AI.Temperature = 2.1 }, true},
		{"zero retries", func(c *Config) { c.AI.MaxRetries = 0 }, true},
		{"negative pacing delay", func(c *Config) { c.Index.PacingDelay = -time.Second }, true},
		{"ratio above one", func(c *Config) { c.Index.MinSuccessRatio = 1.5 }, true},
		{"half ratio", func(c *Config) { c.Index.MinSuccessRatio = 0.5 }, false},
		{"zero top_k", func(c *Config) { c.Chat.TopK = 0 }, true},
		{"zero history limit", func(c *Config) { c.Chat.HistoryLimit = 0 }, true},
		{"bad color mode", func(c *Config) { c.Output.ColorMode = "rainbow" }, true},
		{"always color mode", func(c *Config) { c.Output.ColorMode = "always" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
