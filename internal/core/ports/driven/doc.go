// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DomainStore, TextStore: Library persistence
//   - Ledger: Chunk and embedding process bookkeeping
//   - ModelCacheStore: Cached model metadata
//   - Compressor: Reversible compression of stored text
//   - Chunker, Retriever, Tokenizer: Strategies built from the registries
//   - Extractor: Text extraction from uploads and web pages
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Built per embedding process from its method and parameters.
//   - LLMService: Chat backend. Without it, chat is disabled but retrieval works.
//   - ModelInfoSource: Model metadata lookup. Without it, the configured context window is used.
//   - PromptStore: User-edited prompts. Without it, built-in prompts are used.
//   - FolderWatcher: Watched-folder ingest.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or strategy package
package driven
