package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.docchat.yaml",               // Project-specific config (highest priority)
	"~/.config/docchat/config.yaml", // User config
	"/etc/docchat/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.docchat.yaml
// 4. ~/.config/docchat/config.yaml
// 5. /etc/docchat/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from standard paths, lowest priority first so later files win.
		paths := make([]string, len(l.configPaths))
		copy(paths, l.configPaths)
		for i := len(paths)/2 - 1; i >= 0; i-- {
			opp := len(paths) - 1 - i
			paths[i], paths[opp] = paths[opp], paths[i]
		}

		for _, path := range paths {
			expandedPath := expandPath(path)
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// The OpenAI convention takes precedence over config files.
		"OPENAI_API_KEY":  func(v string) error { config.AI.APIKey = v; return nil },
		"OPENAI_BASE_URL": func(v string) error { config.AI.BaseURL = v; return nil },

		// Docs Config
		"DOCCHAT_DOCS_DIR":            func(v string) error { config.Docs.Dir = v; return nil },
		"DOCCHAT_DOCS_MIN_CHUNK_SIZE": func(v string) error { return parseInt(v, &config.Docs.MinChunkSize) },

		// AI Config
		"DOCCHAT_AI_API_KEY":         func(v string) error { config.AI.APIKey = v; return nil },
		"DOCCHAT_AI_EMBEDDING_MODEL": func(v string) error { config.AI.EmbeddingModel = v; return nil },
		"DOCCHAT_AI_CHAT_MODEL":      func(v string) error { config.AI.ChatModel = v; return nil },
		"DOCCHAT_AI_TEMPERATURE":     func(v string) error { return parseFloat32(v, &config.AI.Temperature) },
		"DOCCHAT_AI_TIMEOUT":         func(v string) error { return parseDuration(v, &config.AI.Timeout) },
		"DOCCHAT_AI_MAX_RETRIES":     func(v string) error { return parseInt(v, &config.AI.MaxRetries) },

		// Storage Config
		"DOCCHAT_STORAGE_DATA_DIR": func(v string) error { config.Storage.DataDir = v; return nil },
		"DOCCHAT_STORAGE_DATABASE": func(v string) error { config.Storage.Database = v; return nil },

		// Index Config
		"DOCCHAT_INDEX_PACING_DELAY":      func(v string) error { return parseDuration(v, &config.Index.PacingDelay) },
		"DOCCHAT_INDEX_MIN_SUCCESS_RATIO": func(v string) error { return parseFloat64(v, &config.Index.MinSuccessRatio) },

		// Chat Config
		"DOCCHAT_CHAT_TOP_K":         func(v string) error { return parseInt(v, &config.Chat.TopK) },
		"DOCCHAT_CHAT_HISTORY_LIMIT": func(v string) error { return parseInt(v, &config.Chat.HistoryLimit) },

		// Output Config
		"DOCCHAT_OUTPUT_COLOR_MODE": func(v string) error { config.Output.ColorMode = v; return nil },
		"DOCCHAT_OUTPUT_VERBOSE":    func(v string) error { return parseBool(v, &config.Output.Verbose) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination.
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	if src.Docs.Dir != "" {
		dst.Docs.Dir = src.Docs.Dir
	}
	if src.Docs.MinChunkSize != 0 {
		dst.Docs.MinChunkSize = src.Docs.MinChunkSize
	}

	mergeAIConfig(&dst.AI, &src.AI)

	if src.Storage.DataDir != "" {
		dst.Storage.DataDir = src.Storage.DataDir
	}
	if src.Storage.Database != "" {
		dst.Storage.Database = src.Storage.Database
	}

	if src.Index.PacingDelay != 0 {
		dst.Index.PacingDelay = src.Index.PacingDelay
	}
	if src.Index.MinSuccessRatio != 0 {
		dst.Index.MinSuccessRatio = src.Index.MinSuccessRatio
	}

	if src.Chat.TopK != 0 {
		dst.Chat.TopK = src.Chat.TopK
	}
	if src.Chat.HistoryLimit != 0 {
		dst.Chat.HistoryLimit = src.Chat.HistoryLimit
	}
	if src.Chat.SystemTemplate != "" {
		dst.Chat.SystemTemplate = src.Chat.SystemTemplate
	}

	if src.Output.ColorMode != "" {
		dst.Output.ColorMode = src.Output.ColorMode
	}
	if src.Output.Verbose {
		dst.Output.Verbose = src.Output.Verbose
	}
}

// mergeAIConfig merges AI configuration
func mergeAIConfig(dst, src *AIConfig) {
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.EmbeddingModel != "" {
		dst.EmbeddingModel = src.EmbeddingModel
	}
	if src.ChatModel != "" {
		dst.ChatModel = src.ChatModel
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat32(s string, dst *float32) error {
	val, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return err
	}
	*dst = float32(val)
	return nil
}

func parseFloat64(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
