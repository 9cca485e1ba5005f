package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/smartheat/heatbot/internal/chunk"
	"github.com/smartheat/heatbot/internal/corpus"
	"github.com/smartheat/heatbot/internal/embedding"
)

// ProgressReporter receives progress updates during index building.
type ProgressReporter interface {
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// Builder runs the ingestion pipeline: documents are chunked, all chunk
// texts are embedded, and the result is assembled into an Index. Every
// run is a full rebuild; there is no append mode.
type Builder struct {
	splitter *chunk.Splitter
	provider embedding.Provider
	progress ProgressReporter
}

// NewBuilder creates an ingestion builder.
func NewBuilder(splitter *chunk.Splitter, provider embedding.Provider) *Builder {
	return &Builder{
		splitter: splitter,
		provider: provider,
	}
}

// SetProgressReporter sets the progress reporter for the builder.
func (b *Builder) SetProgressReporter(reporter ProgressReporter) {
	b.progress = reporter
}

// Build chunks the documents in enumeration order, assigning globally
// sequential ids from 0, embeds every chunk, and returns the assembled
// index. An empty corpus is not an error; it produces an index with zero
// rows. Field bounds of the metadata artifact are enforced here, so an
// oversized source name or chunk text rejects the whole run up front.
func (b *Builder) Build(ctx context.Context, docs []corpus.Document) (*Index, *BuildStats, error) {
	startTime := time.Now()

	var chunks []Chunk
	var texts []string
	nextID := int32(0)

	for _, doc := range docs {
		if len(doc.Source) > MaxSourceBytes {
			return nil, nil, fmt.Errorf("%w: source %q exceeds %d bytes", ErrFieldOverflow, doc.Source, MaxSourceBytes)
		}
		for _, text := range b.splitter.Split(doc.Text) {
			if len(text) > MaxTextBytes {
				return nil, nil, fmt.Errorf("%w: chunk %d of %s is %d bytes, limit %d",
					ErrFieldOverflow, nextID, doc.Source, len(text), MaxTextBytes)
			}
			chunks = append(chunks, Chunk{
				ID:     nextID,
				Source: doc.Source,
				Text:   text,
			})
			texts = append(texts, text)
			nextID++
		}
	}

	vectors := make([]float32, 0, len(chunks)*b.provider.Dimensions())
	for i, text := range texts {
		// Check for cancellation between backend calls.
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		emb, err := b.provider.Embed(ctx, text)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding chunk %d of %s: %w", chunks[i].ID, chunks[i].Source, err)
		}
		if emb.Dimensions() != b.provider.Dimensions() {
			return nil, nil, fmt.Errorf("embedding chunk %d: got %d dimensions, want %d",
				chunks[i].ID, emb.Dimensions(), b.provider.Dimensions())
		}
		vectors = append(vectors, emb.Vector...)

		if b.progress != nil {
			b.progress.OnProgress(i+1, len(texts))
		}
	}

	idx := &Index{
		ModelName:  b.provider.ModelName(),
		Dimensions: b.provider.Dimensions(),
		CreatedAt:  time.Now().UTC(),
		chunks:     chunks,
		vectors:    vectors,
	}
	stats := &BuildStats{
		Documents: len(docs),
		Chunks:    len(chunks),
		Duration:  time.Since(startTime),
	}
	return idx, stats, nil
}
