package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartheat/heatbot/internal/corpus"
	"github.com/smartheat/heatbot/internal/retrieval"
	"github.com/smartheat/heatbot/internal/storage"
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexCheckCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the embedding index",
	Long:  `Commands for inspecting the embedding index.`,
}

// IndexCheckResult is the response for the index check command.
type IndexCheckResult struct {
	Status         string `json:"status"`
	Chunks         int    `json:"chunks"`
	Dimensions     int    `json:"dimensions"`
	Model          string `json:"model"`
	IndexCreated   string `json:"index_created"`
	IndexSizeBytes int64  `json:"index_size_bytes"`
	LastRunChunks  int    `json:"last_run_chunks,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check embedding index health",
	Long: `Check the health of the embedding index: artifact integrity, and
whether the docs directory has changed since the last ingestion run.`,
	RunE: runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// Load validates artifact alignment before anything else.
	idx, err := retrieval.Load(cfg.DataDir)
	if err != nil {
		switch {
		case errors.Is(err, retrieval.ErrIndexNotFound):
			exitWithError(ExitConfigError, "Index not found\n\nRun 'heatbot ingest' to build it.")
		case errors.Is(err, retrieval.ErrIndexIntegrity):
			exitWithError(ExitIntegrityError, "%v\n\nRun 'heatbot ingest' to rebuild the index.", err)
		default:
			exitWithError(ExitError, "loading index: %v", err)
		}
	}

	indexSize, _ := retrieval.ArtifactSize(cfg.DataDir)

	status := "healthy"
	var recommendation string
	exitCode := ExitSuccess
	var lastRun *storage.IngestionRun

	db, err := storage.OpenDB(storage.CatalogPath(cfg.DataDir))
	if err == nil {
		defer db.Close()
		lastRun, err = db.LastRun()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: reading catalog: %v\n", err)
	}

	// Staleness: the recorded corpus fingerprint no longer matches the
	// docs directory. A missing docs dir is not fatal here; query-only
	// hosts do not carry the corpus.
	if lastRun != nil {
		if docs, err := corpus.LoadDir(cfg.DocsDir); err == nil {
			if corpus.Fingerprint(docs) != lastRun.CorpusHash {
				status = "stale"
				recommendation = "Docs directory changed since last ingestion; run 'heatbot ingest'"
				exitCode = ExitIndexStale
			}
		}
	}

	result := IndexCheckResult{
		Status:         status,
		Chunks:         idx.Len(),
		Dimensions:     idx.Dimensions,
		Model:          idx.ModelName,
		IndexCreated:   idx.CreatedAt.Format(time.RFC3339),
		IndexSizeBytes: indexSize,
		Recommendation: recommendation,
	}
	if lastRun != nil {
		result.LastRunChunks = lastRun.ChunkCount
	}

	if humanOutput {
		fmt.Printf("Embedding Index Status: %s\n\n", status)
		fmt.Printf("  Chunks: %d\n", idx.Len())
		fmt.Printf("  Dimensions: %d\n", idx.Dimensions)
		fmt.Printf("  Model: %s\n", idx.ModelName)
		fmt.Printf("  Created: %s\n", idx.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Size: %s\n", formatBytes(indexSize))
		if recommendation != "" {
			fmt.Printf("\n%s\n", recommendation)
		}
	} else {
		outputJSON(result)
	}

	if exitCode != ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}
