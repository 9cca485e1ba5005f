// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/smartheat/heatbot/internal/retrieval"
)

// RetrievalConfig controls query-time retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// ChunkingConfig controls how documents are split before embedding.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	OllamaURL      string  `yaml:"ollama_url"`
	Model          string  `yaml:"model"`
	Dimensions     int     `yaml:"dimensions"`
	TimeoutSecs    int     `yaml:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
}

// BedrockConfig configures answer generation via AWS Bedrock.
type BedrockConfig struct {
	Region      string  `yaml:"region"`
	ModelID     string  `yaml:"model_id"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
}

// Config is the root application configuration, stored in config.yml.
type Config struct {
	DocsDir   string          `yaml:"docs_dir"`
	DataDir   string          `yaml:"data_dir"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Bedrock   BedrockConfig   `yaml:"bedrock"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "heatbot"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		DocsDir: "docs",
		DataDir: "data",
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Chunking: ChunkingConfig{
			Size:    400,
			Overlap: 50,
		},
		Embedding: EmbeddingConfig{
			OllamaURL:      "http://localhost:11434",
			Model:          "all-minilm:l6-v2",
			Dimensions:     384,
			TimeoutSecs:    30,
			RequestsPerSec: 10,
		},
		Bedrock: BedrockConfig{
			Region:      "eu-central-1",
			ModelID:     "anthropic.claude-3-5-sonnet-20240620-v1:0",
			MaxTokens:   512,
			Temperature: 0.2,
			TopP:        0.9,
		},
	}
}

// Path returns the path to the user config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/heatbot/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads configuration from the given path, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads ./config.yml if present, otherwise the user config
// file, otherwise built-in defaults. Environment overrides always apply.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat(ConfigFile); err == nil {
		return Load(ConfigFile)
	}
	if p := Path(); p != "" {
		return Load(p)
	}
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from environment variables. The names
// match the ones the ops side already exports for the hosted deployment.
// A set but unparseable value is an error, not a silent fallback.
func (c *Config) applyEnv() error {
	envString(&c.DocsDir, "DOCS_DIR")
	envString(&c.DataDir, "DATA_DIR")
	envString(&c.Embedding.OllamaURL, "OLLAMA_URL")
	envString(&c.Embedding.Model, "EMBED_MODEL")
	envString(&c.Bedrock.Region, "AWS_REGION")
	envString(&c.Bedrock.ModelID, "BEDROCK_MODEL_ID")

	for _, e := range []error{
		envInt(&c.Retrieval.TopK, "RAG_TOP_K"),
		envInt(&c.Chunking.Size, "CHUNK_SIZE"),
		envInt(&c.Chunking.Overlap, "CHUNK_OVERLAP"),
		envInt(&c.Embedding.Dimensions, "EMBED_DIMENSIONS"),
		envInt(&c.Bedrock.MaxTokens, "LLM_MAX_TOKENS"),
		envFloat(&c.Bedrock.Temperature, "LLM_TEMPERATURE"),
		envFloat(&c.Bedrock.TopP, "LLM_TOP_P"),
	} {
		if e != nil {
			return e
		}
	}
	return nil
}

// Validate checks the configuration for values that would make ingestion
// or retrieval fail later. Called once at startup.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("invalid chunking config: size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("invalid chunking config: overlap must be non-negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("invalid chunking config: overlap (%d) must be smaller than size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	// Size is in runes and a rune is up to 4 UTF-8 bytes, so anything over
	// MaxTextBytes/4 can produce a chunk the metadata record cannot hold.
	if c.Chunking.Size*4 > retrieval.MaxTextBytes {
		return fmt.Errorf("invalid chunking config: size %d can overflow the %d-byte chunk text field (max %d)",
			c.Chunking.Size, retrieval.MaxTextBytes, retrieval.MaxTextBytes/4)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("invalid retrieval config: top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("invalid embedding config: dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.RequestsPerSec <= 0 {
		return fmt.Errorf("invalid embedding config: requests_per_sec must be positive, got %v", c.Embedding.RequestsPerSec)
	}
	return nil
}

// Save writes the config to the given path, creating directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func envFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q is not a number", key, v)
	}
	*dst = f
	return nil
}
