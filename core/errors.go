package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidChatTurn indicates a ChatTurn failed validation.
	ErrInvalidChatTurn = errors.New("invalid chat turn")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidSpeaker indicates an invalid Speaker value.
	ErrInvalidSpeaker = errors.New("invalid speaker")

	// ErrInvalidFile indicates a File failed validation.
	ErrInvalidFile = errors.New("invalid file")

	// ErrEmptyFileName indicates the file has no name.
	ErrEmptyFileName = errors.New("file name cannot be empty")

	// ErrInvalidTransition indicates a FileRecord status change that is not allowed.
	ErrInvalidTransition = errors.New("invalid file status transition")
)

func transitionError(from, to FileStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
