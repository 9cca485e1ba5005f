// Package retrieval implements the embedding index: offline ingestion of
// the document corpus into two persisted artifacts, and online top-k
// similarity search over them.
package retrieval

import "time"

// Chunk is a bounded window of a source document, the atomic unit of
// retrieval. IDs are assigned sequentially across the whole corpus in
// document-enumeration order, starting at 0. They are unique within one
// ingestion run only; a rebuild replaces the entire id space.
type Chunk struct {
	ID     int32
	Source string
	Text   string
}

// QueryResult is a chunk matched by a query, with its cosine similarity
// score. Both sides are unit vectors, so the score is their dot product.
type QueryResult struct {
	ID     int32   `json:"id"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
}

// Index is the in-memory form of the persisted index: a row-major N x D
// embedding matrix and N chunk records, row-aligned. Once built or
// loaded it is never mutated, so it may be read concurrently.
type Index struct {
	ModelName  string
	Dimensions int
	CreatedAt  time.Time

	chunks  []Chunk
	vectors []float32 // flat row-major, len == len(chunks)*Dimensions
}

// Len returns the number of chunks in the index.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Chunks returns the chunk records in row order.
func (idx *Index) Chunks() []Chunk {
	return idx.chunks
}

// row returns the embedding vector for chunk row i.
func (idx *Index) row(i int) []float32 {
	return idx.vectors[i*idx.Dimensions : (i+1)*idx.Dimensions]
}

// BuildStats contains statistics from one ingestion run.
type BuildStats struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Duration  time.Duration `json:"duration"`
}
