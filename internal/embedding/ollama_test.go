package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOllamaProvider_Defaults(t *testing.T) {
	provider := NewOllamaProvider()

	if provider.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %s, want %s", provider.baseURL, DefaultOllamaURL)
	}
	if provider.model != DefaultModel {
		t.Errorf("model = %s, want %s", provider.model, DefaultModel)
	}
	if provider.dimensions != DefaultDimensions {
		t.Errorf("dimensions = %d, want %d", provider.dimensions, DefaultDimensions)
	}
	if provider.client == nil {
		t.Error("client should not be nil")
	}
	if provider.limiter == nil {
		t.Error("limiter should not be nil")
	}
}

func TestNewOllamaProvider_WithOptions(t *testing.T) {
	customURL := "http://custom:8080"
	customModel := "custom-model"
	customDimensions := 768
	customTimeout := 60 * time.Second

	provider := NewOllamaProvider(
		WithBaseURL(customURL),
		WithModel(customModel),
		WithDimensions(customDimensions),
		WithTimeout(customTimeout),
	)

	if provider.baseURL != customURL {
		t.Errorf("baseURL = %s, want %s", provider.baseURL, customURL)
	}
	if provider.model != customModel {
		t.Errorf("model = %s, want %s", provider.model, customModel)
	}
	if provider.dimensions != customDimensions {
		t.Errorf("dimensions = %d, want %d", provider.dimensions, customDimensions)
	}
	if provider.client.Timeout != customTimeout {
		t.Errorf("timeout = %v, want %v", provider.client.Timeout, customTimeout)
	}
}

// newTestProvider returns a provider pointed at a stub Ollama that
// replies with the given vector for every embedding request.
func newTestProvider(t *testing.T, vector []float32) *OllamaProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vector})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "test-model"}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewOllamaProvider(
		WithBaseURL(server.URL),
		WithModel("test-model"),
		WithDimensions(len(vector)),
		WithRequestsPerSec(10000),
	)
}

func TestOllamaProvider_EmbedNormalizes(t *testing.T) {
	provider := newTestProvider(t, []float32{3, 0, 4})

	emb, err := provider.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if emb.Dimensions() != 3 {
		t.Fatalf("dimensions = %d, want 3", emb.Dimensions())
	}
	want := []float32{0.6, 0, 0.8}
	for i := range want {
		if math.Abs(float64(emb.Vector[i]-want[i])) > 1e-6 {
			t.Errorf("vector[%d] = %v, want %v", i, emb.Vector[i], want[i])
		}
	}
	if math.Abs(emb.Norm()-1.0) > 1e-4 {
		t.Errorf("norm = %v, want 1.0", emb.Norm())
	}
}

func TestOllamaProvider_EmbedDeterministic(t *testing.T) {
	provider := newTestProvider(t, []float32{1, 2, 3, 4})

	a, err := provider.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	b, err := provider.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}

	var dot float64
	for i := range a.Vector {
		dot += float64(a.Vector[i]) * float64(b.Vector[i])
	}
	if dot < 0.999999 {
		t.Errorf("cosine similarity between identical embeds = %v, want >= 0.999999", dot)
	}
}

func TestOllamaProvider_EmbedBatchMatchesSingles(t *testing.T) {
	provider := newTestProvider(t, []float32{1, 1})

	texts := []string{"one", "two", "three"}
	batch, err := provider.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("batch size = %d, want %d", len(batch), len(texts))
	}
	for i, text := range texts {
		single, err := provider.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
		for j := range single.Vector {
			if batch[i].Vector[j] != single.Vector[j] {
				t.Errorf("text %q: batch vector differs from single vector at %d", text, j)
			}
		}
	}
}

func TestOllamaProvider_EmbedErrors(t *testing.T) {
	t.Run("backend error is propagated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model overloaded", http.StatusInternalServerError)
		}))
		defer server.Close()

		provider := NewOllamaProvider(WithBaseURL(server.URL), WithRequestsPerSec(10000))
		if _, err := provider.Embed(context.Background(), "hello"); err == nil {
			t.Error("expected error for backend failure, got none")
		}
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float32{1, 2}})
		}))
		defer server.Close()

		provider := NewOllamaProvider(WithBaseURL(server.URL), WithDimensions(3), WithRequestsPerSec(10000))
		if _, err := provider.Embed(context.Background(), "hello"); err == nil {
			t.Error("expected error for dimension mismatch, got none")
		}
	})
}

func TestOllamaProvider_HasModel(t *testing.T) {
	provider := newTestProvider(t, []float32{1})

	has, err := provider.HasModel(context.Background())
	if err != nil {
		t.Fatalf("HasModel: %v", err)
	}
	if !has {
		t.Error("expected model to be reported available")
	}

	other := NewOllamaProvider(WithBaseURL(provider.baseURL), WithModel("missing-model"))
	has, err = other.HasModel(context.Background())
	if err != nil {
		t.Fatalf("HasModel: %v", err)
	}
	if has {
		t.Error("expected missing model to be reported unavailable")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{name: "scales to unit norm", in: []float32{3, 4}, want: []float32{0.6, 0.8}},
		{name: "unit vector unchanged", in: []float32{1, 0}, want: []float32{1, 0}},
		{name: "zero vector unchanged", in: []float32{0, 0}, want: []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make([]float32, len(tt.in))
			copy(v, tt.in)
			Normalize(v)
			for i := range tt.want {
				if math.Abs(float64(v[i]-tt.want[i])) > 1e-6 {
					t.Errorf("Normalize(%v)[%d] = %v, want %v", tt.in, i, v[i], tt.want[i])
				}
			}
		})
	}
}

func TestOllamaProvider_ImplementsProvider(t *testing.T) {
	var _ Provider = (*OllamaProvider)(nil)
}
