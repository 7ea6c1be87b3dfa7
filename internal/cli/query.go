package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yildizm/go-promptfmt"

	"docchat/internal/ai"
	"docchat/internal/retriever"
)

var (
	queryDB          string
	queryTopK        int
	queryShowSources bool
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a single question without entering the chat",
		Long: `Retrieve the most relevant document sections for a question and answer it
in one shot. Unlike 'docchat chat', no conversation state is kept.

Examples:
  docchat query "How do I configure TLS?"
  docchat query --db manuals --sources "What ports does the server use?"`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringVar(&queryDB, "db", "", "database name (defaults to configured database)")
	cmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of sections to retrieve")
	cmd.Flags().BoolVar(&queryShowSources, "sources", false, "print the matched sections after the answer")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	idx, _, err := openDatabase(cfg, queryDB)
	if err != nil {
		return err
	}

	topK := cfg.Chat.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := retriever.New(client, idx)
	results, contextText, err := r.Retrieve(ctx, question, topK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	pb := promptfmt.New().
		System("You are a documentation assistant. Answer strictly from the supplied document sections; when they do not contain the answer, say so.").
		User("%s", question)
	pb.AddContext("documents", contextText)
	prompt := pb.Build()

	answer, err := client.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: prompt.SystemPrompt},
		{Role: ai.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	fmt.Println(answer)

	if queryShowSources && len(results) > 0 {
		fmt.Println("\nSources:")
		for _, res := range results {
			fmt.Printf("  %d. %s (%s, score %.3f)\n",
				res.Rank, res.Metadata.SectionTitle, res.Metadata.FilePath, res.Score)
		}
	}

	return nil
}
