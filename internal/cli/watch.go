package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"docchat/internal/config"
	"docchat/internal/dbmanager"
	"docchat/internal/logger"
	"docchat/internal/vectordb"
)

var (
	watchDB       string
	watchDebounce time.Duration
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [docs-dir]",
		Short: "Rebuild the index when documents change",
		Long: `Monitor the docs directory for Markdown changes and rebuild the vector
database automatically.

Rapid bursts of file events (editor saves, git checkouts) are debounced into
a single rebuild. Press Ctrl+C to stop watching.

Examples:
  docchat watch
  docchat watch ./manuals --db manuals --debounce 5s`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().StringVar(&watchDB, "db", "", "database name (defaults to configured database)")
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before rebuilding")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	docsDir := cfg.Docs.Dir
	if len(args) == 1 {
		docsDir = args[0]
	}

	if _, err := os.Stat(docsDir); err != nil {
		return fmt.Errorf("cannot access docs directory %s: %w", docsDir, err)
	}

	watcher, err := newRecursiveWatcher(docsDir)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	log := logger.NewWithCallback("watch", isVerbose)
	log.Info("watching %s", docsDir)
	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", docsDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runWatchLoop(ctx, cfg, watcher, docsDir, log)
}

// newRecursiveWatcher watches dir and all its subdirectories. fsnotify does
// not recurse on its own.
func newRecursiveWatcher(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch directory tree: %w", err)
	}

	return watcher, nil
}

func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// runWatchLoop collects relevant events and rebuilds after a quiet period.
func runWatchLoop(ctx context.Context, cfg *config.Config, watcher *fsnotify.Watcher, docsDir string, log *logger.Logger) error {
	var debounce *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping watch")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !relevantWatchEvent(event) {
				continue
			}

			log.Debug("change detected: %s (%s)", event.Name, event.Op)

			// Newly created directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			pending = debounce.C

		case <-pending:
			pending = nil
			if err := rebuildIndex(ctx, cfg, docsDir, log); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Warn("watcher error: %v", err)
		}
	}
}

// relevantWatchEvent filters to events that can change index content.
func relevantWatchEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	// Directory events matter for watch registration; file events only for
	// Markdown.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return true
	}
	return isMarkdownFile(event.Name)
}

func rebuildIndex(ctx context.Context, cfg *config.Config, docsDir string, log *logger.Logger) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	chunks, files, err := collectChunks(docsDir, cfg.Docs.MinChunkSize)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no Markdown sections found under %s", docsDir)
	}

	fmt.Printf("Rebuilding index from %d files (%d chunks)...\n", files, len(chunks))
	start := time.Now()

	idx, stats, err := vectordb.Build(ctx, client, chunks,
		vectordb.WithPacingDelay(cfg.Index.PacingDelay),
		vectordb.WithMinSuccessRatio(cfg.Index.MinSuccessRatio))
	if err != nil {
		return err
	}

	manager := dbmanager.New(cfg.Storage.DataDir)
	dir, err := manager.Path(resolveDBName(cfg.Storage.Database, watchDB))
	if err != nil {
		return err
	}
	if err := idx.Save(dir); err != nil {
		return fmt.Errorf("failed to save database: %w", err)
	}

	log.InfoWithFields("index rebuilt", []logger.Field{
		logger.Count(idx.Size()),
		logger.F("failed", stats.Failed),
		logger.Duration(time.Since(start)),
	})
	fmt.Printf("Rebuilt: %d vectors saved to %s\n", idx.Size(), dir)

	return nil
}
