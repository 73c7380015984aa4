// Command docqa ingests documents and answers questions over them.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/extract/pdf"
	"github.com/custodia-labs/docqa/internal/adapters/driven/extract/plaintext"
	llmopenai "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/chunker"
	"github.com/custodia-labs/docqa/internal/config"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/tokenizer"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(filepath.Dir(configPath), "data")
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	counter := tokenizer.NewCounter(cfg.OpenAI.ChatModel)
	ch := chunker.New(counter,
		chunker.WithChunkTokens(cfg.Ingest.ChunkTokens),
		chunker.WithOverlapTokens(cfg.Ingest.OverlapTokens),
	)
	extractors := []driven.TextExtractor{pdf.New(), plaintext.New()}

	// Without an API key the read-only commands still work; anything
	// that talks to OpenAI reports a configuration error.
	var (
		embedder driven.EmbeddingService
		llm      driven.LLMService
	)
	if cfg.OpenAI.APIKey != "" {
		embedder, err = openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.EmbeddingModel,
			Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("configuring embedding service: %w", err)
		}

		llm, err = llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.ChatModel,
			Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("configuring llm service: %w", err)
		}
	}

	pipeline := services.NewPipeline(store, embedder, ch, extractors, services.PipelineConfig{
		Workers:         cfg.Ingest.Workers,
		EmbedTimeout:    time.Duration(cfg.Ingest.EmbedTimeoutSeconds) * time.Second,
		ShutdownTimeout: time.Duration(cfg.Ingest.ShutdownTimeoutSeconds) * time.Second,
		EmbedRate:       rate.Limit(cfg.Ingest.EmbedRatePerSecond),
	})
	pipeline.Start()
	defer pipeline.Stop()

	if llm != nil && embedder != nil {
		retriever := services.NewRetriever(store, embedder)
		answerer := services.NewAnswerer(retriever, llm, counter, services.AnswererConfig{
			MaxContextTokens: cfg.Answer.MaxContextTokens,
			ResponseReserve:  cfg.Answer.ResponseReserve,
			TopK:             cfg.Answer.TopK,
			SummaryChunks:    cfg.Answer.SummaryChunks,
			SummaryTokens:    cfg.Answer.SummaryTokens,
		})
		cli.SetServices(pipeline, answerer)
	} else {
		cli.SetServices(pipeline, nil)
	}

	cli.SetVersion(version)
	return cli.Execute()
}
