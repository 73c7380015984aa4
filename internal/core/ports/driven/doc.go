// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - DocumentStore: document and chunk persistence (SQLite)
//   - EmbeddingService: generates vector embeddings for chunks and queries
//   - LLMService: chat completion for answer generation
//   - TextExtractor: pulls plain text out of source files
//   - TokenCounter: measures text in model tokens
//   - Chunker: splits extracted text into token-bounded chunks
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
