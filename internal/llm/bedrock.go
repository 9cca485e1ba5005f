package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/smartheat/heatbot/internal/retrieval"
)

// anthropicVersion is the Bedrock API version for Claude models.
const anthropicVersion = "bedrock-2023-05-31"

// maxRetryAttempts for Bedrock calls, standard retry mode.
const maxRetryAttempts = 10

// invokeAPI is the subset of the Bedrock runtime client used here.
type invokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Options configures the Bedrock generation client.
type Options struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Client generates answers with a Claude model on AWS Bedrock.
type Client struct {
	api  invokeAPI
	opts Options
}

// NewClient creates a Bedrock client using the default AWS credential
// chain for the configured region.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Client{
		api:  bedrockruntime.NewFromConfig(cfg),
		opts: opts,
	}, nil
}

// newClientWithAPI is used by tests to substitute the Bedrock API.
func newClientWithAPI(api invokeAPI, opts Options) *Client {
	return &Client{api: api, opts: opts}
}

// claudeRequest is the anthropic-format request body for InvokeModel.
type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	Messages         []claudeMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	TopP             float64         `json:"top_p"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// claudeResponse is the anthropic-format response body.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// Generate produces an answer to the question grounded in the retrieved
// chunks. The caller decides what to do when results is empty; the
// prompt is sent either way, with an empty context block.
func (c *Client) Generate(ctx context.Context, question string, results []retrieval.QueryResult) (string, error) {
	prompt := BuildPrompt(question, results)

	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		Messages: []claudeMessage{
			{
				Role:    "user",
				Content: []claudeContent{{Type: "text", Text: prompt}},
			},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.opts.ModelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("calling bedrock model %s: %w", c.opts.ModelID, err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decoding bedrock response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("unexpected bedrock response format: no content blocks")
	}

	return strings.TrimSpace(resp.Content[0].Text), nil
}
