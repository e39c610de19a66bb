// Package ingestion turns uploaded meeting artifacts into transcripts,
// summaries and vector indexes.
//
// The Pipeline type manages the upload workflow:
//   - Storing the raw upload
//   - Classifying it by extension into a MediaKind
//   - Obtaining text (background transcription for video, extraction for
//     documents, decoding for plain text)
//   - Storing the transcript and its summary
//   - Building and persisting the document's vector index
//
// All writes for one document run under a per-document lock. Video uploads
// return as soon as transcription is scheduled; the remaining steps run when
// the transcript arrives.
//
// The Catalog type lists what a knowledge base already holds.
package ingestion
