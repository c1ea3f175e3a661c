// Package driven declares what the core needs from the outside world:
// model providers, output recovery, prompt templates, configuration and
// the reference store.
//
// Generation cannot run without an LLMService for at least one tier, an
// OutputRecovery and a PromptStore. The retrieval side is optional. With
// no EmbeddingService or VectorIndex the prompts simply carry no reference
// context. A VectorIndex backed by no VectorPersistence forgets everything
// on exit.
//
// Only the domain package may be imported here.
package driven
