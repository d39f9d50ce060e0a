package ingestion

import "errors"

var (
	// ErrDispatcherRequired is returned when an extraction dispatcher is not provided.
	ErrDispatcherRequired = errors.New("extraction dispatcher required")

	// ErrNoFiles is returned when Ingest is called with an empty batch.
	ErrNoFiles = errors.New("no files submitted")

	// ErrNoDocumentsProcessed is returned after the join when every file in the batch errored.
	ErrNoDocumentsProcessed = errors.New("no documents processed")

	// ErrCoordinatorReleased is returned when Ingest is called after Release.
	ErrCoordinatorReleased = errors.New("coordinator released")
)
