package retrieval

import "sort"

// Search returns the k chunks most similar to the query vector, ordered
// by non-increasing score. Stored vectors and the query are unit vectors,
// so the dot product is the cosine similarity. The scan is exact and
// O(N*D); for a corpus sized to fit in memory that is deliberate, no
// approximate structure is involved.
//
// k is clamped to the number of rows. Equal scores are broken by
// ascending chunk id so results are deterministic. An empty index yields
// an empty result, not an error.
func (idx *Index) Search(query []float32, k int) []QueryResult {
	n := idx.Len()
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	scores := make([]float32, n)
	for i := 0; i < n; i++ {
		scores[i] = dot(idx.row(i), query)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return idx.chunks[ia].ID < idx.chunks[ib].ID
	})

	results := make([]QueryResult, k)
	for i := 0; i < k; i++ {
		row := order[i]
		c := idx.chunks[row]
		results[i] = QueryResult{
			ID:     c.ID,
			Source: c.Source,
			Text:   c.Text,
			Score:  scores[row],
		}
	}
	return results
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
