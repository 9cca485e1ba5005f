package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartheat/heatbot/internal/chunk"
	"github.com/smartheat/heatbot/internal/corpus"
	"github.com/smartheat/heatbot/internal/retrieval"
	"github.com/smartheat/heatbot/internal/storage"
)

var noProgress bool

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
}

// IngestResult is the response for the ingest command.
type IngestResult struct {
	Status          string  `json:"status"`
	Documents       int     `json:"documents"`
	Chunks          int     `json:"chunks"`
	DurationSeconds float64 `json:"duration_seconds"`
	Model           string  `json:"model"`
	IndexSizeBytes  int64   `json:"index_size_bytes"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build or rebuild the embedding index from the docs directory",
	Long: `Build or rebuild the embedding index from the docs directory.

Every run is a full rebuild: documents are split into overlapping
chunks, every chunk is embedded, and the index artifacts are replaced
atomically. Requires Ollama to be running with the embedding model
available; run 'ollama pull all-minilm:l6-v2' to download it.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := loadConfig()

	provider := newProvider(cfg)
	mustCheckBackend(ctx, provider)

	docs, err := corpus.LoadDir(cfg.DocsDir)
	if err != nil {
		exitWithError(ExitError, "loading corpus: %v", err)
	}

	splitter, err := chunk.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	builder := retrieval.NewBuilder(splitter, provider)
	if !noProgress && humanOutput {
		builder.SetProgressReporter(retrieval.ProgressFunc(printProgress))
		fmt.Fprintf(os.Stderr, "Building embedding index...\n")
	}

	idx, stats, err := builder.Build(ctx, docs)
	if err != nil {
		exitWithError(ExitError, "building index: %v", err)
	}

	if err := idx.Save(cfg.DataDir); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}

	// Record the run in the catalog. The index itself is already
	// published, so a catalog failure is reported but not fatal.
	db, err := storage.OpenDB(storage.CatalogPath(cfg.DataDir))
	if err == nil {
		defer db.Close()
		err = db.RecordRun(storage.IngestionRun{
			CreatedAt:     time.Now().Unix(),
			ModelName:     provider.ModelName(),
			DocumentCount: stats.Documents,
			ChunkCount:    stats.Chunks,
			DurationMs:    stats.Duration.Milliseconds(),
			CorpusHash:    corpus.Fingerprint(docs),
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording ingestion run: %v\n", err)
	}

	indexSize, err := retrieval.ArtifactSize(cfg.DataDir)
	if err != nil {
		indexSize = 0
	}

	if humanOutput {
		if !noProgress {
			clearProgress()
		}
		fmt.Printf("\nIngestion complete:\n")
		fmt.Printf("  Documents: %d\n", stats.Documents)
		fmt.Printf("  Chunks: %d\n", stats.Chunks)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Index size: %s\n", formatBytes(indexSize))
		fmt.Printf("  Model: %s\n", provider.ModelName())
	} else {
		outputJSON(IngestResult{
			Status:          "complete",
			Documents:       stats.Documents,
			Chunks:          stats.Chunks,
			DurationSeconds: stats.Duration.Seconds(),
			Model:           provider.ModelName(),
			IndexSizeBytes:  indexSize,
		})
	}

	return nil
}
