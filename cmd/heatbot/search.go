package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartheat/heatbot/internal/retrieval"
)

var searchTopK int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "Maximum number of results (default from config)")
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string                  `json:"query"`
	Results []retrieval.QueryResult `json:"results"`
	Total   int                     `json:"total"`
	Model   string                  `json:"model"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Retrieve the most relevant documentation chunks for a query",
	Long: `Retrieve documentation chunks by semantic similarity, without
generating an answer. Useful for inspecting what context the assistant
would ground its answers in.

Requires the index to be built first with 'heatbot ingest'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.TrimSpace(args[0])
	if query == "" {
		exitWithError(ExitError, "Search query cannot be empty")
	}

	cfg := loadConfig()
	topK := searchTopK
	if topK <= 0 {
		topK = cfg.Retrieval.TopK
	}

	provider := newProvider(cfg)
	mustCheckBackend(ctx, provider)

	retriever := retrieval.NewRetriever(cfg.DataDir, provider)
	results, err := retriever.Retrieve(ctx, query, topK)
	if err != nil {
		exitRetrievalError(err)
	}

	if humanOutput {
		fmt.Printf("Search: %q\n", query)
		fmt.Printf("Found %d chunks\n\n", len(results))
		for i, r := range results {
			fmt.Printf("%d. [%.3f] %s (chunk %d)\n", i+1, r.Score, r.Source, r.ID)
			fmt.Printf("   %s\n\n", truncateString(strings.ReplaceAll(r.Text, "\n", " "), 160))
		}
	} else {
		outputJSON(SearchResponse{
			Query:   query,
			Results: results,
			Total:   len(results),
			Model:   provider.ModelName(),
		})
	}

	return nil
}

// exitRetrievalError maps retrieval failures to their exit codes.
func exitRetrievalError(err error) {
	switch {
	case errors.Is(err, retrieval.ErrIndexNotFound):
		exitWithError(ExitConfigError, "Index not found\n\nRun 'heatbot ingest' to build it.")
	case errors.Is(err, retrieval.ErrIndexIntegrity):
		exitWithError(ExitIntegrityError, "%v", err)
	default:
		exitWithError(ExitError, "%v", err)
	}
}
