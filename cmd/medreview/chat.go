package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docuchat/medreview/internal/engine"
	"github.com/docuchat/medreview/internal/session"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering over the ingested abstracts",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "default", "session key for conversation history")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ret, _, err := a.openRetriever()
	if err != nil {
		return err
	}
	eng := engine.New(ret, a.generator(), session.NewStore(a.cfg.Sessions.MaxTurns), a.logger)

	cmd.Println()
	cmd.Println("MedReview ready. Type /exit to quit.")
	cmd.Println()

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	for {
		cmd.Print("You: ")
		if !scanner.Scan() {
			break
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		switch strings.ToLower(q) {
		case "/exit", "exit", "quit":
			return nil
		}

		ans, err := eng.Ask(ctx, chatSession, q)
		if err != nil {
			cmd.PrintErrln("Error:", err)
			continue
		}

		cmd.Println()
		cmd.Println("AI:", ans.Text)
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range ans.Sources {
			cmd.Println("-", s)
		}
		cmd.Println()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
