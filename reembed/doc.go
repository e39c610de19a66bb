// Package reembed rebuilds persisted vector indexes whose embedding-model
// stamp no longer matches the active embedder.
//
// Indexes keep their chunk texts, so a rebuild needs no transcript or
// summary: every chunk is embedded again, in order, and the index is
// persisted in place under the document's lock. Embedding calls are retried
// with exponential backoff and progress is reported to a writer.
package reembed
