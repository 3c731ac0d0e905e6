package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/algomentor/dsa-tutor/backend/internal/client"
	"github.com/algomentor/dsa-tutor/backend/internal/config"
	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/model/persona"
	"github.com/algomentor/dsa-tutor/backend/internal/service/ai"
	chatservice "github.com/algomentor/dsa-tutor/backend/internal/service/chat"
)

var opts struct {
	server    string
	local     bool
	problem   string
	personaID string
	history   int
	plain     bool
}

var rootCmd = &cobra.Command{
	Use:   "tutorchat",
	Short: "Terminal chat with the DSA tutor",
	Long: `tutorchat is a terminal client for the DSA tutor. Paste a LeetCode problem
link with /problem and ask questions; the tutor guides you with hints instead
of full solutions.`,
	PreRun:       loadDotEnv,
	RunE:         runChat,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&opts.server, "server", "http://localhost:8080", "tutor API base URL")
	rootCmd.Flags().BoolVar(&opts.local, "local", false, "call the model provider in-process instead of a server")
	rootCmd.Flags().StringVar(&opts.problem, "problem", "", "LeetCode problem URL to start with")
	rootCmd.Flags().StringVar(&opts.personaID, "persona", persona.DefaultID, "tutor persona id")
	rootCmd.Flags().IntVar(&opts.history, "history", chat.MaxVisibleMessages, "messages shown by /history")
	rootCmd.Flags().BoolVar(&opts.plain, "plain", false, "print replies without markdown rendering")
}

func loadDotEnv(_ *cobra.Command, _ []string) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.problem != "" && !chat.ValidProblemURL(opts.problem) {
		return fmt.Errorf("invalid problem URL %q: expected https://leetcode.com/problems/<slug>", opts.problem)
	}

	turner, greeting, err := newTurner(ctx)
	if err != nil {
		return err
	}

	var renderer *glamour.TermRenderer
	if !opts.plain {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			log.Printf("markdown rendering disabled: %v", err)
			renderer = nil
		}
	}

	s := newSession(turner, greeting, os.Stdout, renderer, opts.history, chatservice.WithPersona(opts.personaID))
	if opts.problem != "" {
		s.store.SetContext(opts.problem)
	}
	return s.run(ctx, os.Stdin)
}

// newTurner returns the turn backend and the greeting the conversation opens with.
func newTurner(ctx context.Context) (chatservice.Turner, chat.Message, error) {
	if !opts.local {
		c := client.New(opts.server, nil)
		greeting, err := c.Greeting(ctx, opts.personaID)
		if err != nil {
			return nil, chat.Message{}, fmt.Errorf("reach tutor server at %s: %w", opts.server, err)
		}
		return c, greeting, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, chat.Message{}, fmt.Errorf("load configuration: %w", err)
	}

	personas := persona.NewMemoryStore(persona.Seed())
	p, ok := personas.FindByID(opts.personaID)
	if !ok {
		return nil, chat.Message{}, fmt.Errorf("unknown persona %q", opts.personaID)
	}

	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			return nil, chat.Message{}, fmt.Errorf("create chat model: %w", err)
		}
	}

	svc, err := ai.NewService(ctx, chatModel, personas, cfg.AI)
	if err != nil {
		return nil, chat.Message{}, err
	}
	return svc, chat.Greeting(p.Greeting), nil
}
