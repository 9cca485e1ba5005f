package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/smartheat/heatbot/internal/retrieval"
)

type fakeInvokeAPI struct {
	lastInput *bedrockruntime.InvokeModelInput
	respBody  string
	err       error
}

func (f *fakeInvokeAPI) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.respBody)}, nil
}

func testOptions() Options {
	return Options{
		Region:      "eu-central-1",
		ModelID:     "anthropic.claude-3-5-sonnet-20240620-v1:0",
		MaxTokens:   512,
		Temperature: 0.2,
		TopP:        0.9,
	}
}

func TestGenerate(t *testing.T) {
	api := &fakeInvokeAPI{
		respBody: `{"content": [{"type": "text", "text": "  Hold the reset button for 5 seconds.  "}]}`,
	}
	client := newClientWithAPI(api, testOptions())

	results := []retrieval.QueryResult{
		{ID: 0, Source: "manual.txt", Text: "Reset: hold the button.", Score: 0.9},
	}
	answer, err := client.Generate(context.Background(), "How do I reset?", results)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "Hold the reset button for 5 seconds." {
		t.Errorf("answer = %q, want trimmed model text", answer)
	}

	if got := *api.lastInput.ModelId; got != "anthropic.claude-3-5-sonnet-20240620-v1:0" {
		t.Errorf("model id = %q", got)
	}
	if got := *api.lastInput.ContentType; got != "application/json" {
		t.Errorf("content type = %q", got)
	}

	var req claudeRequest
	if err := json.Unmarshal(api.lastInput.Body, &req); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	if req.AnthropicVersion != anthropicVersion {
		t.Errorf("anthropic_version = %q, want %q", req.AnthropicVersion, anthropicVersion)
	}
	if req.MaxTokens != 512 || req.Temperature != 0.2 || req.TopP != 0.9 {
		t.Errorf("sampling params = %d/%v/%v, want 512/0.2/0.9", req.MaxTokens, req.Temperature, req.TopP)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want one user message", req.Messages)
	}
	prompt := req.Messages[0].Content[0].Text
	if !strings.Contains(prompt, "How do I reset?") || !strings.Contains(prompt, "Reset: hold the button.") {
		t.Error("prompt missing question or context")
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeInvokeAPI
		want string
	}{
		{
			name: "invoke failure",
			api:  &fakeInvokeAPI{err: errors.New("throttled")},
			want: "calling bedrock model",
		},
		{
			name: "malformed response",
			api:  &fakeInvokeAPI{respBody: `not json`},
			want: "decoding bedrock response",
		},
		{
			name: "empty content",
			api:  &fakeInvokeAPI{respBody: `{"content": []}`},
			want: "no content blocks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClientWithAPI(tt.api, testOptions())
			_, err := client.Generate(context.Background(), "q", nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Generate error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
