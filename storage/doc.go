// Package storage provides the storage abstraction for chat history.
//
// The conversation controller writes turns through the TurnRepository
// interface and never touches the backing store directly. The badger
// subpackage provides the implementation, normally opened in memory since
// a session's history does not outlive the process.
//
//	repo, err := badger.NewMemoryTurnRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Ordering
//
// Turns are keyed by a monotonically increasing sequence number, so
// ListTurns always returns them in append order.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
