package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/ai/openai"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/dbmanager"
	"docchat/internal/vectordb"
)

// newClient builds the OpenAI client from config.
func newClient(cfg *config.Config) (*openai.Client, error) {
	clientCfg := openai.DefaultConfig()
	clientCfg.APIKey = cfg.AI.APIKey
	clientCfg.BaseURL = cfg.AI.BaseURL
	clientCfg.EmbeddingModel = cfg.AI.EmbeddingModel
	clientCfg.ChatModel = cfg.AI.ChatModel
	clientCfg.Temperature = cfg.AI.Temperature
	clientCfg.Timeout = cfg.AI.Timeout
	clientCfg.MaxRetries = cfg.AI.MaxRetries

	client, err := openai.New(clientCfg)
	if err != nil {
		if cfg.AI.APIKey == "" {
			return nil, fmt.Errorf("no API key configured: set OPENAI_API_KEY or ai.api_key in the config file")
		}
		return nil, err
	}
	return client, nil
}

// openDatabase loads the configured database from disk.
func openDatabase(cfg *config.Config, dbName string) (*vectordb.Index, string, error) {
	if dbName == "" {
		dbName = cfg.Storage.Database
	}

	manager := dbmanager.New(cfg.Storage.DataDir)
	dir, err := manager.Path(dbName)
	if err != nil {
		return nil, "", err
	}

	idx, err := vectordb.Load(dir)
	if err != nil {
		if errors.Is(err, vectordb.ErrNotFound) {
			return nil, "", fmt.Errorf("database %q does not exist at %s: run 'docchat index' first", dbName, dir)
		}
		return nil, "", err
	}

	return idx, dir, nil
}

// collectChunks scans dir for Markdown files and chunks them all.
func collectChunks(dir string, minChunkSize int) ([]chunker.Chunk, int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot access docs directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("docs path %s is not a directory", dir)
	}

	var chunks []chunker.Chunk
	files := 0

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isMarkdownFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		files++
		chunks = append(chunks, chunker.Split(string(data), rel, minChunkSize)...)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return chunks, files, nil
}

func isMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
