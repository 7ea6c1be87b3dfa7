package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docchat/internal/dbmanager"
	"docchat/internal/logger"
	"docchat/internal/vectordb"
)

var (
	indexDB           string
	indexMinChunkSize int
	indexSuccessRatio float64
)

func newIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [docs-dir]",
		Short: "Build a vector database from Markdown documents",
		Long: `Scan a directory for Markdown files, chunk them by section, embed every
chunk and save the result as a vector database.

The docs directory defaults to the configured docs.dir. Chunks that fail to
embed are skipped and counted; the build fails only when nothing embeds (or
when the success ratio drops below --min-success-ratio).

Examples:
  docchat index
  docchat index ./manuals --db manuals
  docchat index --min-success-ratio 0.9`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().StringVar(&indexDB, "db", "", "database name (defaults to configured database)")
	cmd.Flags().IntVar(&indexMinChunkSize, "min-chunk-size", 0, "minimum chunk size in characters")
	cmd.Flags().Float64Var(&indexSuccessRatio, "min-success-ratio", -1, "minimum fraction of chunks that must embed (0 accepts any success)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	docsDir := cfg.Docs.Dir
	if len(args) == 1 {
		docsDir = args[0]
	}

	minChunkSize := cfg.Docs.MinChunkSize
	if indexMinChunkSize > 0 {
		minChunkSize = indexMinChunkSize
	}

	successRatio := cfg.Index.MinSuccessRatio
	if indexSuccessRatio >= 0 {
		successRatio = indexSuccessRatio
	}

	log := logger.NewWithCallback("index", isVerbose)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	chunks, files, err := collectChunks(docsDir, minChunkSize)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no Markdown sections found under %s", docsDir)
	}

	fmt.Printf("Chunked %d files into %d chunks\n", files, len(chunks))
	log.InfoWithFields("chunking complete", []logger.Field{
		logger.F("files", files),
		logger.Count(len(chunks)),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	idx, stats, err := vectordb.Build(ctx, client, chunks,
		vectordb.WithPacingDelay(cfg.Index.PacingDelay),
		vectordb.WithMinSuccessRatio(successRatio),
		vectordb.WithProgress(func(done, total int) {
			if done%10 == 0 || done == total {
				fmt.Printf("\rEmbedding chunks: %d/%d", done, total)
			}
		}))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	if stats.Failed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d of %d chunks failed to embed and were skipped\n",
			stats.Failed, stats.Total)
	}

	manager := dbmanager.New(cfg.Storage.DataDir)
	dir, err := manager.Path(resolveDBName(cfg.Storage.Database, indexDB))
	if err != nil {
		return err
	}

	if err := idx.Save(dir); err != nil {
		return fmt.Errorf("failed to save database: %w", err)
	}

	log.InfoWithFields("index built", []logger.Field{
		logger.Count(idx.Size()),
		logger.F("dimension", idx.Dimension()),
		logger.Duration(time.Since(start)),
	})
	fmt.Printf("Saved %d vectors (dimension %d, model %s) to %s\n",
		idx.Size(), idx.Dimension(), idx.ModelName(), dir)

	return nil
}

func resolveDBName(configured, flag string) string {
	if flag != "" {
		return flag
	}
	return configured
}
