package main

import (
	"context"
	"time"

	"github.com/smartheat/heatbot/internal/config"
	"github.com/smartheat/heatbot/internal/embedding"
)

// newProvider builds the embedding provider from config.
func newProvider(cfg *config.Config) *embedding.OllamaProvider {
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Embedding.OllamaURL),
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimensions(cfg.Embedding.Dimensions),
		embedding.WithTimeout(time.Duration(cfg.Embedding.TimeoutSecs)*time.Second),
		embedding.WithRequestsPerSec(cfg.Embedding.RequestsPerSec),
	)
}

// mustCheckBackend verifies that Ollama is reachable and the embedding
// model is pulled, and exits with a distinct code otherwise.
func mustCheckBackend(ctx context.Context, provider *embedding.OllamaProvider) {
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitBackendError, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}
	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
	}
}
