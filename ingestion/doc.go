// Package ingestion turns a batch of uploaded files into one text context.
//
// The Coordinator type manages the ingestion workflow for a batch, including:
//   - Creating one FileRecord per file, in submission order
//   - Extracting every file concurrently on a worker pool
//   - Waiting for every extraction to settle (a full join, never a race)
//   - Concatenating the successful texts under per-file provenance headers
//
// File-scoped failures are recorded on their FileRecord and never abort the
// batch. Only when no file succeeds does Ingest report ErrNoDocumentsProcessed.
package ingestion
