package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

// WelcomeMessage is the first Model turn after a context is loaded.
const WelcomeMessage = "Documents processed successfully. You can now ask questions about their content."

// Apology renders an inference failure as a Model turn text.
func Apology(err error) string {
	return "Sorry, I encountered an error: " + err.Error()
}

// Controller owns the conversation state: the loaded context, the chat
// history, the awaiting-reply flag and the last question error.
// It is safe for concurrent use; at most one question is in flight.
type Controller struct {
	answerer ai.Answerer
	turns    storage.TurnRepository
	logger   *slog.Logger

	mu       sync.Mutex
	context  string
	awaiting bool
	// generation increments on every reset; replies from an older
	// generation are dropped.
	generation uint64
	lastErr    error
}

// Option configures a Controller.
type Option func(*Controller) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewController creates a conversation controller with an empty history.
func NewController(answerer ai.Answerer, turns storage.TurnRepository, opts ...Option) (*Controller, error) {
	if answerer == nil {
		return nil, ErrAnswererRequired
	}
	if turns == nil {
		return nil, ErrTurnRepositoryRequired
	}

	c := &Controller{
		answerer: answerer,
		turns:    turns,
		logger:   slog.Default().With("component", "conversation"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Load replaces the conversation with a fresh one over docContext.
// Any in-flight reply is discarded. A non-empty context starts the history
// with the welcome turn; an empty one leaves the controller unable to accept
// questions.
func (c *Controller) Load(ctx context.Context, docContext string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.resetLocked(ctx); err != nil {
		return err
	}
	c.context = docContext
	if docContext == "" {
		return nil
	}

	if _, err := c.turns.AppendTurns(ctx, core.NewModelTurn(WelcomeMessage)); err != nil {
		return fmt.Errorf("append welcome turn: %w", err)
	}
	c.logger.Info("context loaded", "context_length", len(docContext))
	return nil
}

// Reset clears the context, the history, the awaiting-reply flag and the
// last error. Any in-flight reply is discarded when it settles.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked(ctx)
}

func (c *Controller) resetLocked(ctx context.Context) error {
	if c.awaiting {
		c.logger.Info("discarding in-flight question")
	}
	c.generation++
	c.context = ""
	c.awaiting = false
	c.lastErr = nil
	return c.turns.ClearTurns(ctx)
}

// Ask submits a question about the loaded context and blocks until the
// reply settles.
//
// If the context is empty, another question is awaiting its reply, or the
// question is blank, Ask returns an error wrapping ErrQuestionRejected and
// changes nothing.
//
// Otherwise the User turn is appended at once and the answerer is called.
// The returned turn is the Model reply: the answer on success, or an apology
// carrying the failure message, in which case LastError reports the failure.
// Inference failures are never returned as errors.
func (c *Controller) Ask(ctx context.Context, question string) (core.ChatTurn, error) {
	c.mu.Lock()
	if err := c.checkLocked(question); err != nil {
		c.mu.Unlock()
		c.logger.Debug("question rejected", "reason", err)
		return core.ChatTurn{}, err
	}

	if _, err := c.turns.AppendTurns(ctx, core.NewUserTurn(question)); err != nil {
		c.mu.Unlock()
		return core.ChatTurn{}, fmt.Errorf("append question: %w", err)
	}
	c.awaiting = true
	c.lastErr = nil
	generation := c.generation
	docContext := c.context
	c.mu.Unlock()

	// Once dispatched, inference runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	c.logger.Debug("asking", "question_length", len(question))
	answer, answerErr := c.generate(ctx, docContext, question)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		c.logger.Info("dropping reply for a reset conversation", "failed", answerErr != nil)
		return core.ChatTurn{}, ErrReplyDiscarded
	}
	c.awaiting = false

	if answerErr == nil && strings.TrimSpace(answer) == "" {
		answerErr = fmt.Errorf("%w: the model returned an empty response", ai.ErrInference)
	}

	reply := core.NewModelTurn(answer)
	if answerErr != nil {
		c.logger.Warn("inference failed", "err", answerErr)
		c.lastErr = answerErr
		reply = core.NewModelTurn(Apology(answerErr))
	}

	if _, err := c.turns.AppendTurns(ctx, reply); err != nil {
		c.logger.Error("question left without a reply in history", "question_length", len(question), "err", err)
		c.lastErr = err
		return core.ChatTurn{}, fmt.Errorf("append reply: %w", err)
	}
	return *reply, nil
}

// generate calls the answerer, converting a panic into an inference failure
// so the awaiting flag is always cleared.
func (c *Controller) generate(ctx context.Context, docContext, question string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("answerer panicked", "panic", r)
			answer = ""
			err = fmt.Errorf("%w: answerer panicked: %v", ai.ErrInference, r)
		}
	}()
	return c.answerer.GenerateGroundedAnswer(ctx, docContext, question)
}

func (c *Controller) checkLocked(question string) error {
	switch {
	case c.context == "":
		return fmt.Errorf("%w: %w", ErrQuestionRejected, ErrNoContext)
	case c.awaiting:
		return fmt.Errorf("%w: %w", ErrQuestionRejected, ErrAwaitingReply)
	case strings.TrimSpace(question) == "":
		return fmt.Errorf("%w: %w", ErrQuestionRejected, ErrBlankQuestion)
	}
	return nil
}

// History returns a snapshot of the chat turns in order.
func (c *Controller) History(ctx context.Context) ([]core.ChatTurn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	turns, err := c.turns.ListTurns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.ChatTurn, len(turns))
	for i, t := range turns {
		out[i] = *t
	}
	return out, nil
}

// Context returns the loaded document context, or "" when none is loaded.
func (c *Controller) Context() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.context
}

// Awaiting reports whether a question is waiting for its reply.
func (c *Controller) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// LastError returns the failure of the most recent question, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Ready reports whether Ask would accept a non-blank question now.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.context != "" && !c.awaiting
}
