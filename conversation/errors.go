package conversation

import "errors"

var (
	// ErrAnswererRequired indicates NewController was called without an answerer.
	ErrAnswererRequired = errors.New("answerer is required")

	// ErrTurnRepositoryRequired indicates NewController was called without a turn repository.
	ErrTurnRepositoryRequired = errors.New("turn repository is required")

	// ErrQuestionRejected is returned by Ask when a precondition is not met.
	// No turn is appended and the answerer is not called. It always wraps one
	// of ErrNoContext, ErrAwaitingReply or ErrBlankQuestion.
	ErrQuestionRejected = errors.New("question rejected")

	// ErrNoContext indicates no document context is loaded.
	ErrNoContext = errors.New("no document context loaded")

	// ErrAwaitingReply indicates a previous question has not been answered yet.
	ErrAwaitingReply = errors.New("a previous question is awaiting its reply")

	// ErrBlankQuestion indicates the question is empty after trimming whitespace.
	ErrBlankQuestion = errors.New("question is blank")

	// ErrReplyDiscarded indicates the conversation was reset while the reply
	// was in flight. The reply was dropped and the history is untouched.
	ErrReplyDiscarded = errors.New("reply discarded after reset")
)
