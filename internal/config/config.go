package config

import (
	"fmt"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Docs    DocsConfig    `yaml:"docs" json:"docs"`
	AI      AIConfig      `yaml:"ai" json:"ai"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Chat    ChatConfig    `yaml:"chat" json:"chat"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// DocsConfig configures the Markdown document source
type DocsConfig struct {
	Dir          string `yaml:"dir" json:"dir"`                       // directory scanned for .md files
	MinChunkSize int    `yaml:"min_chunk_size" json:"min_chunk_size"` // merge target in characters
}

// AIConfig configures the OpenAI client
type AIConfig struct {
	APIKey         string        `yaml:"api_key" json:"api_key"` // usually supplied via OPENAI_API_KEY
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	EmbeddingModel string        `yaml:"embedding_model" json:"embedding_model"`
	ChatModel      string        `yaml:"chat_model" json:"chat_model"`
	Temperature    float32       `yaml:"temperature" json:"temperature"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
}

// StorageConfig configures where databases live
type StorageConfig struct {
	DataDir  string `yaml:"data_dir" json:"data_dir"`  // root holding vector_db* directories
	Database string `yaml:"database" json:"database"`  // database name, "default" for the unnamed one
}

// IndexConfig configures index building
type IndexConfig struct {
	PacingDelay     time.Duration `yaml:"pacing_delay" json:"pacing_delay"`           // delay between embedding calls
	MinSuccessRatio float64       `yaml:"min_success_ratio" json:"min_success_ratio"` // 0 accepts any nonzero success
}

// ChatConfig configures retrieval and conversation behavior
type ChatConfig struct {
	TopK           int    `yaml:"top_k" json:"top_k"`                     // chunks retrieved per question
	HistoryLimit   int    `yaml:"history_limit" json:"history_limit"`     // messages replayed per prompt
	SystemTemplate string `yaml:"system_template" json:"system_template"` // empty uses the built-in persona
}

// OutputConfig configures display behavior
type OutputConfig struct {
	ColorMode string `yaml:"color_mode" json:"color_mode"` // auto|always|never
	Verbose   bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Docs: DocsConfig{
			Dir:          "./docs",
			MinChunkSize: 2000,
		},
		AI: AIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
			Temperature:    0.7,
			Timeout:        60 * time.Second,
			MaxRetries:     3,
		},
		Storage: StorageConfig{
			DataDir:  "./data",
			Database: "default",
		},
		Index: IndexConfig{
			PacingDelay:     100 * time.Millisecond,
			MinSuccessRatio: 0,
		},
		Chat: ChatConfig{
			TopK:         5,
			HistoryLimit: 10,
		},
		Output: OutputConfig{
			ColorMode: "auto",
			Verbose:   false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Docs.MinChunkSize < 1 {
		return fmt.Errorf("min_chunk_size must be greater than 0")
	}
	if c.AI.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.AI.ChatModel == "" {
		return fmt.Errorf("chat_model is required")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.AI.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be greater than 0")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Index.PacingDelay < 0 {
		return fmt.Errorf("pacing_delay must be non-negative")
	}
	if c.Index.MinSuccessRatio < 0 || c.Index.MinSuccessRatio > 1 {
		return fmt.Errorf("min_success_ratio must be between 0 and 1")
	}
	if c.Chat.TopK < 1 {
		return fmt.Errorf("top_k must be greater than 0")
	}
	if c.Chat.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be greater than 0")
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}
