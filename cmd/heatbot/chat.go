package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartheat/heatbot/internal/retrieval"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question-and-answer session",
	Long: `Start an interactive chat session. Each question is answered from
the documentation index via AWS Bedrock. Type 'exit' or 'quit' (or press
Ctrl-D) to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := loadConfig()

	provider := newProvider(cfg)
	mustCheckBackend(ctx, provider)

	retriever := retrieval.NewRetriever(cfg.DataDir, provider)
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		exitWithError(ExitError, "creating bedrock client: %v", err)
	}

	fmt.Println("SmartHeat Pro support assistant")
	fmt.Println("Type your question, or 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if q := strings.ToLower(question); q == "exit" || q == "quit" {
			fmt.Println("Goodbye!")
			break
		}

		results, err := retriever.Retrieve(ctx, question, cfg.Retrieval.TopK)
		if err != nil {
			exitRetrievalError(err)
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No relevant chunks found; answering without context.")
		} else {
			fmt.Fprintf(os.Stderr, "Top sources: %s\n", strings.Join(uniqueSources(results), ", "))
		}

		answer, err := generator.Generate(ctx, question, results)
		if err != nil {
			// A failed generation does not end the session.
			fmt.Fprintf(os.Stderr, "error: generating answer: %v\n", err)
			fmt.Println("Bot: Sorry, something went wrong while generating the answer.")
			continue
		}

		fmt.Printf("\nBot: %s\n", answer)
		fmt.Println(strings.Repeat("-", 80))
	}

	return scanner.Err()
}
