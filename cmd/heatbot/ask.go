package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartheat/heatbot/internal/config"
	"github.com/smartheat/heatbot/internal/llm"
	"github.com/smartheat/heatbot/internal/retrieval"
)

func init() {
	rootCmd.AddCommand(askCmd)
}

// AskResponse is the response for the ask command.
type AskResponse struct {
	Question string                  `json:"question"`
	Answer   string                  `json:"answer"`
	Sources  []retrieval.QueryResult `json:"sources"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question about the SmartHeat Pro",
	Long: `Answer one question: retrieve the most relevant documentation
chunks and generate an answer grounded in them via AWS Bedrock.

Requires the index ('heatbot ingest'), a running Ollama, and AWS
credentials with Bedrock access in the environment.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := strings.TrimSpace(args[0])
	if question == "" {
		exitWithError(ExitError, "Question cannot be empty")
	}

	cfg := loadConfig()
	provider := newProvider(cfg)
	mustCheckBackend(ctx, provider)

	retriever := retrieval.NewRetriever(cfg.DataDir, provider)
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		exitWithError(ExitError, "creating bedrock client: %v", err)
	}

	results, err := retriever.Retrieve(ctx, question, cfg.Retrieval.TopK)
	if err != nil {
		exitRetrievalError(err)
	}

	answer, err := generator.Generate(ctx, question, results)
	if err != nil {
		exitWithError(ExitError, "generating answer: %v", err)
	}

	if humanOutput {
		fmt.Println(answer)
		if len(results) > 0 {
			fmt.Printf("\nSources: %s\n", strings.Join(uniqueSources(results), ", "))
		}
	} else {
		outputJSON(AskResponse{
			Question: question,
			Answer:   answer,
			Sources:  results,
		})
	}

	return nil
}

// newGenerator builds the Bedrock generation client from config.
func newGenerator(ctx context.Context, cfg *config.Config) (*llm.Client, error) {
	return llm.NewClient(ctx, llm.Options{
		Region:      cfg.Bedrock.Region,
		ModelID:     cfg.Bedrock.ModelID,
		MaxTokens:   cfg.Bedrock.MaxTokens,
		Temperature: cfg.Bedrock.Temperature,
		TopP:        cfg.Bedrock.TopP,
	})
}

// uniqueSources returns the distinct source labels in ranking order.
func uniqueSources(results []retrieval.QueryResult) []string {
	seen := make(map[string]bool, len(results))
	var sources []string
	for _, r := range results {
		if !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}
	return sources
}
