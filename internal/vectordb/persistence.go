package vectordb

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docchat/internal/chunker"
)

// Database artifact filenames. A directory holding all four is a complete
// database; holding none is no database; anything in between is corrupt.
const (
	VectorsFile  = "vectors.gob"
	TextsFile    = "texts.json"
	MetadataFile = "metadata.json"
	ConfigFile   = "config.json"
)

// ArtifactFiles lists every file a complete database directory contains.
var ArtifactFiles = []string{VectorsFile, TextsFile, MetadataFile, ConfigFile}

// DBConfig is the persisted database descriptor. It doubles as a
// consistency check on load: dimension and vector count must match the
// other artifacts.
type DBConfig struct {
	ModelName    string `json:"model_name"`
	Dimension    int    `json:"dimension"`
	TotalVectors int    `json:"total_vectors"`
}

// Save writes the index to dir as four artifacts. The directory is created
// if needed.
func (idx *Index) Save(dir string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := writeGob(filepath.Join(dir, VectorsFile), idx.vectors); err != nil {
		return fmt.Errorf("failed to save vectors: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, TextsFile), idx.texts); err != nil {
		return fmt.Errorf("failed to save texts: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, MetadataFile), idx.metadata); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	cfg := DBConfig{
		ModelName:    idx.modelName,
		Dimension:    idx.dimension,
		TotalVectors: len(idx.vectors),
	}
	if err := writeJSON(filepath.Join(dir, ConfigFile), cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Load reads a database directory back into an index. It returns
// ErrNotFound when no artifact exists at dir, and CorruptDatabaseError when
// the artifacts are partial, unreadable, or mutually inconsistent.
func Load(dir string) (*Index, error) {
	present := 0
	for _, name := range ArtifactFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			present++
		}
	}
	if present == 0 {
		return nil, ErrNotFound
	}
	if present < len(ArtifactFiles) {
		return nil, &CorruptDatabaseError{
			Path:   dir,
			Reason: fmt.Sprintf("only %d of %d artifacts present", present, len(ArtifactFiles)),
		}
	}

	var vectors [][]float32
	if err := readGob(filepath.Join(dir, VectorsFile), &vectors); err != nil {
		return nil, &CorruptDatabaseError{Path: dir, Reason: "unreadable vectors", Cause: err}
	}

	var texts []string
	if err := readJSON(filepath.Join(dir, TextsFile), &texts); err != nil {
		return nil, &CorruptDatabaseError{Path: dir, Reason: "unreadable texts", Cause: err}
	}

	var metadata []chunker.Metadata
	if err := readJSON(filepath.Join(dir, MetadataFile), &metadata); err != nil {
		return nil, &CorruptDatabaseError{Path: dir, Reason: "unreadable metadata", Cause: err}
	}

	var cfg DBConfig
	if err := readJSON(filepath.Join(dir, ConfigFile), &cfg); err != nil {
		return nil, &CorruptDatabaseError{Path: dir, Reason: "unreadable config", Cause: err}
	}

	if len(vectors) != len(texts) || len(vectors) != len(metadata) {
		return nil, &CorruptDatabaseError{
			Path: dir,
			Reason: fmt.Sprintf("artifact lengths disagree: %d vectors, %d texts, %d metadata records",
				len(vectors), len(texts), len(metadata)),
		}
	}

	if cfg.TotalVectors != len(vectors) {
		return nil, &CorruptDatabaseError{
			Path:   dir,
			Reason: fmt.Sprintf("config claims %d vectors, found %d", cfg.TotalVectors, len(vectors)),
		}
	}

	for i, v := range vectors {
		if len(v) != cfg.Dimension {
			return nil, &CorruptDatabaseError{
				Path:   dir,
				Reason: fmt.Sprintf("vector %d has dimension %d, config says %d", i, len(v), cfg.Dimension),
			}
		}
	}

	return &Index{
		vectors:   vectors,
		texts:     texts,
		metadata:  metadata,
		dimension: cfg.Dimension,
		modelName: cfg.ModelName,
	}, nil
}

// ReadConfig reads just the database descriptor, for status listings that
// should not load the full vector set.
func ReadConfig(dir string) (*DBConfig, error) {
	var cfg DBConfig
	if err := readJSON(filepath.Join(dir, ConfigFile), &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &CorruptDatabaseError{Path: dir, Reason: "unreadable config", Cause: err}
	}
	return &cfg, nil
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return gob.NewEncoder(f).Encode(v)
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return gob.NewDecoder(f).Decode(v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
