package retrieval

import "testing"

func TestFormatContext(t *testing.T) {
	tests := []struct {
		name    string
		results []QueryResult
		want    string
	}{
		{
			name:    "empty",
			results: nil,
			want:    "",
		},
		{
			name: "single result",
			results: []QueryResult{
				{ID: 0, Source: "manual.txt", Text: "Hold the reset button.", Score: 0.5},
			},
			want: "[Source: manual.txt | Score: 0.500]\nHold the reset button.\n",
		},
		{
			name: "preserves ranking order and formats scores to three decimals",
			results: []QueryResult{
				{ID: 3, Source: "a.txt", Text: "text one", Score: 0.9123},
				{ID: 1, Source: "b.txt", Text: "text two", Score: 0.8},
			},
			want: "[Source: a.txt | Score: 0.912]\ntext one\n\n[Source: b.txt | Score: 0.800]\ntext two\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatContext(tt.results); got != tt.want {
				t.Errorf("FormatContext = %q, want %q", got, tt.want)
			}
		})
	}
}
