package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/smartheat/heatbot/internal/embedding"
)

// Retriever answers nearest-neighbor queries against the persisted index.
// The artifacts are loaded lazily on the first query and cached for the
// lifetime of the process; there is no unload or hot-reload. A failed
// load is returned to the caller and retried on the next query rather
// than poisoning the cache. Once loaded, the index is read-only and
// queries need no synchronization.
type Retriever struct {
	dataDir  string
	provider embedding.Provider

	mu  sync.Mutex
	idx *Index
}

// NewRetriever creates a retriever over the artifacts in dataDir.
func NewRetriever(dataDir string, provider embedding.Provider) *Retriever {
	return &Retriever{
		dataDir:  dataDir,
		provider: provider,
	}
}

// Index returns the cached index, loading it if necessary. Concurrent
// first calls trigger exactly one load.
func (r *Retriever) Index() (*Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idx != nil {
		return r.idx, nil
	}
	idx, err := Load(r.dataDir)
	if err != nil {
		return nil, err
	}
	r.idx = idx
	return idx, nil
}

// Retrieve embeds the query and returns the k most similar chunks,
// ordered by non-increasing score. An embedding failure does not evict
// the cached index; the next query may still succeed.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]QueryResult, error) {
	idx, err := r.Index()
	if err != nil {
		return nil, err
	}

	emb, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if idx.Len() > 0 && emb.Dimensions() != idx.Dimensions {
		return nil, fmt.Errorf("query embedding has %d dimensions, index has %d: embedding model changed since ingestion",
			emb.Dimensions(), idx.Dimensions)
	}

	return idx.Search(emb.Vector, k), nil
}
