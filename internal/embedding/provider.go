package embedding

import "context"

// Provider generates embeddings from text. Implementations must return
// unit-normalized vectors, and the same input text must produce the same
// vector whether embedded alone or as part of a batch. There is no
// separate query mode.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// EmbedBatch generates embeddings for all texts, in input order.
	// It is semantically equivalent to calling Embed per text.
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
