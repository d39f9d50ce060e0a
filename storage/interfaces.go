package storage

import (
	"context"

	"github.com/poiesic/docchat/core"
)

// TurnRepository persists the ordered chat history of one conversation.
type TurnRepository interface {
	// AppendTurns stores one or more turns at the end of the history.
	// Assigns each turn the next sequence number, overwriting any Seq already set.
	// Returns ErrInvalidTurn if any turn fails validation; nothing is stored then.
	AppendTurns(ctx context.Context, turns ...*core.ChatTurn) ([]*core.ChatTurn, error)

	// ListTurns returns every stored turn in append order.
	ListTurns(ctx context.Context) ([]*core.ChatTurn, error)

	// CountTurns returns the number of stored turns.
	CountTurns(ctx context.Context) (int, error)

	// ClearTurns removes every stored turn.
	// Sequence numbers keep increasing across clears.
	ClearTurns(ctx context.Context) error

	// Close releases resources held by the repository.
	Close() error
}
