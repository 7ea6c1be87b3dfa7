// Package dbmanager administers the vector database directories under a
// common root: the default database plus named ones, with listing, deletion
// and timestamped backups.
package dbmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docchat/internal/vectordb"
)

const (
	// DefaultName addresses the unnamed database.
	DefaultName = "default"

	defaultDirName = "vector_db"
	namedPrefix    = "vector_db_"
	backupsDirName = "backups"
)

// Info describes one database directory.
type Info struct {
	Name         string
	Path         string
	Complete     bool
	MissingFiles []string
	Config       *vectordb.DBConfig
	SizeBytes    int64
}

// Manager operates on database directories under root.
type Manager struct {
	root string
}

func New(root string) *Manager {
	return &Manager{root: root}
}

// Path maps a database name to its directory. The empty name and
// DefaultName both address the default database.
func (m *Manager) Path(name string) (string, error) {
	if name == "" || name == DefaultName {
		return filepath.Join(m.root, defaultDirName), nil
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(m.root, namedPrefix+name), nil
}

func validateName(name string) error {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid database name %q", name)
	}
	return nil
}

// List returns info for every database directory under the root, sorted by
// name with the default database first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read database root: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		var name string
		switch {
		case entry.Name() == defaultDirName:
			name = DefaultName
		case strings.HasPrefix(entry.Name(), namedPrefix):
			name = strings.TrimPrefix(entry.Name(), namedPrefix)
		default:
			continue
		}

		info, err := m.inspect(name, filepath.Join(m.root, entry.Name()))
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name == DefaultName {
			return true
		}
		if infos[j].Name == DefaultName {
			return false
		}
		return infos[i].Name < infos[j].Name
	})

	return infos, nil
}

// Status inspects one database. It returns vectordb.ErrNotFound when the
// directory does not exist.
func (m *Manager) Status(name string) (*Info, error) {
	dir, err := m.Path(name)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, vectordb.ErrNotFound
		}
		return nil, err
	}

	return m.inspect(normalizeName(name), dir)
}

func normalizeName(name string) string {
	if name == "" {
		return DefaultName
	}
	return name
}

func (m *Manager) inspect(name, dir string) (*Info, error) {
	info := &Info{
		Name:     name,
		Path:     dir,
		Complete: true,
	}

	for _, artifact := range vectordb.ArtifactFiles {
		stat, err := os.Stat(filepath.Join(dir, artifact))
		if err != nil {
			info.Complete = false
			info.MissingFiles = append(info.MissingFiles, artifact)
			continue
		}
		info.SizeBytes += stat.Size()
	}

	if cfg, err := vectordb.ReadConfig(dir); err == nil {
		info.Config = cfg
	}

	return info, nil
}

// Delete removes a database directory. Deleting a database that does not
// exist returns vectordb.ErrNotFound.
func (m *Manager) Delete(name string) error {
	dir, err := m.Path(name)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return vectordb.ErrNotFound
		}
		return err
	}

	return os.RemoveAll(dir)
}

// Backup copies a database directory to backups/<dir>_<timestamp> under
// the root and returns the backup path.
func (m *Manager) Backup(name string) (string, error) {
	dir, err := m.Path(name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return "", vectordb.ErrNotFound
		}
		return "", err
	}

	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(m.root, backupsDirName, filepath.Base(dir)+"_"+stamp)

	if err := copyDir(dir, dest); err != nil {
		// Leave no partial backup behind.
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("backup failed: %w", err)
	}

	return dest, nil
}

func copyDir(src, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, destPath); err != nil {
				return err
			}
			continue
		}

		if err := copyFile(srcPath, destPath); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// IsNotFound reports whether err means the database does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, vectordb.ErrNotFound)
}
