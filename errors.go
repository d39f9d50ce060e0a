package docchat

import "errors"

// BatchFailureMessage is shown when no file of a batch could be processed.
const BatchFailureMessage = "Failed to process any documents. Please try again with valid files."

var (
	// ErrBusy indicates a batch is still being processed.
	ErrBusy = errors.New("a batch is already being processed")

	// ErrBatchDiscarded indicates the session was cleared or replaced while
	// the batch was processing. Its results were dropped.
	ErrBatchDiscarded = errors.New("batch discarded")
)

// UserError pairs a failure with the message presented to the user.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}
