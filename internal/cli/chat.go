package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docchat/internal/logger"
	"docchat/internal/retriever"
	"docchat/internal/session"
	"docchat/internal/tui"
)

var chatDB string

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively with the indexed documents",
		Long: `Open an interactive chat over a vector database. Each question retrieves
the most relevant document sections, which ground the model's answer.
Conversation history carries across questions within the session.

In the chat, /clear resets the history and /quit exits.`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	cmd.Flags().StringVar(&chatDB, "db", "", "database name (defaults to configured database)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	idx, _, err := openDatabase(cfg, chatDB)
	if err != nil {
		return err
	}

	log := logger.NewWithCallback("chat", isVerbose)
	if idx.ModelName() != cfg.AI.EmbeddingModel {
		log.Warn("database was built with %s but queries use %s; results may be poor",
			idx.ModelName(), cfg.AI.EmbeddingModel)
	}

	opts := []session.Option{
		session.WithTopK(cfg.Chat.TopK),
		session.WithHistoryLimit(cfg.Chat.HistoryLimit),
	}
	if cfg.Chat.SystemTemplate != "" {
		opts = append(opts, session.WithSystemTemplate(cfg.Chat.SystemTemplate))
	}

	s := session.New(retriever.New(client, idx), client, opts...)
	defer func() { _ = s.Close() }()

	log.InfoWithFields("session started", []logger.Field{
		logger.F("session", s.ID()),
		logger.Count(idx.Size()),
	})

	model := tui.New(s, tui.ChatInfo{
		Database:  resolveDBName(cfg.Storage.Database, chatDB),
		ChatModel: cfg.AI.ChatModel,
		Vectors:   idx.Size(),
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}

	return nil
}
