// Package config loads and persists the application configuration as a
// TOML file in the docqa config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// OpenAI holds credentials and model selection for the OpenAI API.
type OpenAI struct {
	// APIKey authenticates requests. The OPENAI_API_KEY environment
	// variable takes precedence over the file value.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the API endpoint for compatible backends.
	BaseURL string `toml:"base_url"`

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string `toml:"embedding_model"`

	// ChatModel is the chat completion model name.
	ChatModel string `toml:"chat_model"`

	// TimeoutSeconds bounds a single API request.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Ingest configures the ingestion pipeline.
type Ingest struct {
	// Workers is the number of concurrent document processors.
	Workers int `toml:"workers"`

	// ChunkTokens is the token budget per chunk.
	ChunkTokens int `toml:"chunk_tokens"`

	// OverlapTokens is the overlap budget between adjacent chunks.
	OverlapTokens int `toml:"overlap_tokens"`

	// EmbedRatePerSecond limits embedding calls across all workers.
	EmbedRatePerSecond int `toml:"embed_rate_per_second"`

	// EmbedTimeoutSeconds bounds a single embedding call.
	EmbedTimeoutSeconds int `toml:"embed_timeout_seconds"`

	// ShutdownTimeoutSeconds bounds how long shutdown waits for
	// in-flight documents.
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
}

// Answer configures retrieval and context assembly.
type Answer struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `toml:"top_k"`

	// MaxContextTokens is the model's context window size.
	MaxContextTokens int `toml:"max_context_tokens"`

	// ResponseReserve is held back from the window for the completion.
	ResponseReserve int `toml:"response_reserve"`

	// SummaryChunks is the retrieval width for summaries.
	SummaryChunks int `toml:"summary_chunks"`

	// SummaryTokens caps the summary completion length.
	SummaryTokens int `toml:"summary_tokens"`
}

// Config is the full application configuration.
type Config struct {
	// DataDir is where the SQLite database lives. Empty means the
	// default under the config directory.
	DataDir string `toml:"data_dir"`

	OpenAI OpenAI `toml:"openai"`
	Ingest Ingest `toml:"ingest"`
	Answer Answer `toml:"answer"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		OpenAI: OpenAI{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Ingest: Ingest{
			Workers:                2,
			ChunkTokens:            500,
			OverlapTokens:          50,
			EmbedRatePerSecond:     5,
			EmbedTimeoutSeconds:    60,
			ShutdownTimeoutSeconds: 5,
		},
		Answer: Answer{
			TopK:             5,
			MaxContextTokens: 8000,
			ResponseReserve:  2000,
			SummaryChunks:    10,
			SummaryTokens:    800,
		},
	}
}

// DefaultPath returns ~/.docqa/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docqa", "config.toml"), nil
}

// Load reads the configuration at path, layering file values over
// defaults. A missing file yields the defaults. The OPENAI_API_KEY
// environment variable overrides the file's API key either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}

	return cfg, nil
}

// Save writes the configuration to path, creating the directory if
// needed. The file is restricted to the owner because it can hold the
// API key.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
