// Package engine wires the memory pipeline together and exposes the two
// host-facing hooks.
//
// The pipeline runs per user message:
//   - OnIncoming: classify -> retrieve (cached similarity scoring) ->
//     rerank -> format a context block for injection
//   - OnOutgoing: classify (cached verdict) -> schedule background
//     consolidation that may CREATE/UPDATE/DELETE stored memories
//
// Architecture:
//   - cache: bounded two-level LRU holding embeddings, similarity sets,
//     memory lists and classification verdicts per user
//   - classify: size, structural and semantic skip detection
//   - similarity: embedding-based relevance scoring
//   - rerank: model-assisted selection of the final memory set
//   - consolidate: model-planned store mutations with safety checks
//
// The host supplies the three ports: a MemoryStore (store/chromem for
// local use), an Embedder (embedder/onnx or embedder/mock) and a Completer
// (llm/anthropic). Background consolidation runs detached; call Shutdown
// before process exit to drain it.
package engine
