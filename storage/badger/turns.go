package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

// TurnRepository implements storage.TurnRepository using BadgerDB.
type TurnRepository struct {
	backend *Backend
	seq     *badger.Sequence
	// serializes appends so sequence order matches commit order
	mu sync.Mutex
}

var _ storage.TurnRepository = (*TurnRepository)(nil)

// NewTurnRepository creates a new TurnRepository.
func NewTurnRepository(backend *Backend) (*TurnRepository, error) {
	seq, err := backend.GetSequence(turnSeq)
	if err != nil {
		return nil, err
	}

	return &TurnRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the sequence.
func (r *TurnRepository) Close() error {
	return r.seq.Release()
}

// AppendTurns stores turns at the end of the history.
func (r *TurnRepository) AppendTurns(ctx context.Context, turns ...*core.ChatTurn) ([]*core.ChatTurn, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	for _, turn := range turns {
		if err := core.ValidateChatTurn(turn); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidTurn, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			next, err := r.seq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if next == 0 {
				next, err = r.seq.Next()
				if err != nil {
					return err
				}
			}
			turn.Seq = next

			if err := tx.Set(makeTurnKey(turn.Seq), storage.MarshalChatTurn(turn)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return turns, nil
}

// ListTurns returns every turn in append order.
func (r *TurnRepository) ListTurns(ctx context.Context) ([]*core.ChatTurn, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var turns []*core.ChatTurn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(turnPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				turn, err := storage.UnmarshalChatTurn(val)
				if err != nil {
					return err
				}
				turns = append(turns, turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return turns, err
}

// CountTurns returns the number of stored turns.
func (r *TurnRepository) CountTurns(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(turnPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// ClearTurns removes every stored turn.
func (r *TurnRepository) ClearTurns(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.DeletePrefix([]byte(turnPrefix))
}
