package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/mock"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
	"github.com/poiesic/docchat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, answerer *mock.MockAnswerer) *Controller {
	t.Helper()
	repo, err := badger.NewMemoryTurnRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	c, err := NewController(answerer, repo)
	require.NoError(t, err)
	return c
}

func history(t *testing.T, c *Controller) []core.ChatTurn {
	t.Helper()
	turns, err := c.History(context.Background())
	require.NoError(t, err)
	return turns
}

// blockingAnswerer returns an answerer that waits for release before answering,
// and a channel signalled when a call starts.
func blockingAnswerer(answer string, err error) (*mock.MockAnswerer, chan struct{}, chan struct{}) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	m := mock.NewMockAnswerer().WithGenerateFunc(func(ctx context.Context, docContext, question string) (string, error) {
		started <- struct{}{}
		<-release
		return answer, err
	})
	return m, started, release
}

func TestNewController_RequiresCollaborators(t *testing.T) {
	repo, err := badger.NewMemoryTurnRepository()
	require.NoError(t, err)
	defer repo.Close()

	_, err = NewController(nil, repo)
	assert.ErrorIs(t, err, ErrAnswererRequired)

	_, err = NewController(mock.NewMockAnswerer(), nil)
	assert.ErrorIs(t, err, ErrTurnRepositoryRequired)
}

func TestLoad_WelcomeTurn(t *testing.T) {
	c := newTestController(t, mock.NewMockAnswerer())
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, "--- Content from a.pdf ---\nHello"))

	turns := history(t, c)
	require.Len(t, turns, 1)
	assert.Equal(t, core.SpeakerModel, turns[0].Speaker)
	assert.Equal(t, WelcomeMessage, turns[0].Text)
	assert.True(t, c.Ready())
	assert.Equal(t, "--- Content from a.pdf ---\nHello", c.Context())
}

func TestLoad_EmptyContext(t *testing.T) {
	c := newTestController(t, mock.NewMockAnswerer())

	require.NoError(t, c.Load(context.Background(), ""))
	assert.Empty(t, history(t, c))
	assert.False(t, c.Ready())
}

func TestAsk_Success(t *testing.T) {
	answerer := mock.NewMockAnswerer().WithAnswer("It says Hello.")
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	reply, err := c.Ask(ctx, "What does it say?")
	require.NoError(t, err)
	assert.Equal(t, core.SpeakerModel, reply.Speaker)
	assert.Equal(t, "It says Hello.", reply.Text)

	turns := history(t, c)
	require.Len(t, turns, 3)
	assert.Equal(t, core.SpeakerUser, turns[1].Speaker)
	assert.Equal(t, "What does it say?", turns[1].Text)
	assert.Equal(t, core.SpeakerModel, turns[2].Speaker)
	assert.Equal(t, "It says Hello.", turns[2].Text)

	assert.Equal(t, []mock.AnswerCall{{Context: "Hello", Question: "What does it say?"}}, answerer.Calls())
	assert.False(t, c.Awaiting())
	assert.NoError(t, c.LastError())
}

func TestAsk_RejectedPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		question string
		reason   error
	}{
		{"no context", "", "What?", ErrNoContext},
		{"empty question", "Hello", "", ErrBlankQuestion},
		{"whitespace question", "Hello", " \t\n ", ErrBlankQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answerer := mock.NewMockAnswerer()
			c := newTestController(t, answerer)
			ctx := context.Background()
			require.NoError(t, c.Load(ctx, tt.context))
			before := len(history(t, c))

			_, err := c.Ask(ctx, tt.question)
			assert.ErrorIs(t, err, ErrQuestionRejected)
			assert.ErrorIs(t, err, tt.reason)
			assert.Len(t, history(t, c), before)
			assert.Zero(t, answerer.CallCount())
			assert.False(t, c.Awaiting())
		})
	}
}

func TestAsk_RejectedWhileAwaiting(t *testing.T) {
	answerer, started, release := blockingAnswerer("first answer", nil)
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	done := make(chan core.ChatTurn, 1)
	go func() {
		reply, err := c.Ask(ctx, "first?")
		assert.NoError(t, err)
		done <- reply
	}()
	<-started

	assert.True(t, c.Awaiting())
	assert.False(t, c.Ready())
	_, err := c.Ask(ctx, "second?")
	assert.ErrorIs(t, err, ErrAwaitingReply)

	close(release)
	reply := <-done
	assert.Equal(t, "first answer", reply.Text)

	turns := history(t, c)
	require.Len(t, turns, 3)
	assert.Equal(t, "first?", turns[1].Text)
	assert.Equal(t, "first answer", turns[2].Text)
	assert.Equal(t, 1, answerer.CallCount())
}

func TestAsk_FailureYieldsOneApology(t *testing.T) {
	failure := fmt.Errorf("%w: quota exceeded", ai.ErrInference)
	answerer := mock.NewMockAnswerer().WithError(failure)
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	reply, err := c.Ask(ctx, "What?")
	require.NoError(t, err, "inference failures are not returned as errors")
	assert.Equal(t, "Sorry, I encountered an error: inference failed: quota exceeded", reply.Text)
	assert.Equal(t, core.SpeakerModel, reply.Speaker)

	turns := history(t, c)
	require.Len(t, turns, 3)
	assert.Equal(t, reply.Text, turns[2].Text)
	assert.ErrorIs(t, c.LastError(), ai.ErrInference)
	assert.False(t, c.Awaiting())

	// A subsequent question proceeds and clears the last error.
	answerer.WithAnswer("recovered")
	reply, err = c.Ask(ctx, "Again?")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Text)
	assert.NoError(t, c.LastError())
	assert.Len(t, history(t, c), 5)
}

func TestAsk_ServiceUnavailableMessageVerbatim(t *testing.T) {
	failure := fmt.Errorf("%w: Gemini API key is not configured", ai.ErrServiceUnavailable)
	c := newTestController(t, mock.NewMockAnswerer().WithError(failure))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	reply, err := c.Ask(ctx, "What?")
	require.NoError(t, err)
	assert.Equal(t, Apology(failure), reply.Text)
	assert.Contains(t, reply.Text, "Gemini API key is not configured")
}

func TestAsk_EmptyAnswerBecomesApology(t *testing.T) {
	c := newTestController(t, mock.NewMockAnswerer().WithAnswer(""))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	reply, err := c.Ask(ctx, "What?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Sorry, I encountered an error")
	assert.ErrorIs(t, c.LastError(), ai.ErrInference)
}

func TestAsk_TurnOrderMatchesSubmission(t *testing.T) {
	answerer := mock.NewMockAnswerer().WithGenerateFunc(func(ctx context.Context, docContext, q string) (string, error) {
		return "answer " + q, nil
	})
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	for i := range 5 {
		_, err := c.Ask(ctx, fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	turns := history(t, c)
	require.Len(t, turns, 11)
	for i := range 5 {
		assert.Equal(t, fmt.Sprintf("q%d", i), turns[1+2*i].Text)
		assert.Equal(t, fmt.Sprintf("answer q%d", i), turns[2+2*i].Text)
	}
}

func TestReset_Idempotent(t *testing.T) {
	c := newTestController(t, mock.NewMockAnswerer().WithError(errors.New("boom")))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))
	_, err := c.Ask(ctx, "What?")
	require.NoError(t, err)
	require.Error(t, c.LastError())

	for range 2 {
		require.NoError(t, c.Reset(ctx))
		assert.Empty(t, history(t, c))
		assert.Empty(t, c.Context())
		assert.False(t, c.Awaiting())
		assert.NoError(t, c.LastError())
		assert.False(t, c.Ready())
	}
}

func TestReset_DiscardsInFlightReply(t *testing.T) {
	answerer, started, release := blockingAnswerer("late answer", nil)
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	errs := make(chan error, 1)
	go func() {
		_, err := c.Ask(ctx, "slow?")
		errs <- err
	}()
	<-started

	require.NoError(t, c.Reset(ctx))
	assert.False(t, c.Awaiting())

	close(release)
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrReplyDiscarded)
	case <-time.After(5 * time.Second):
		t.Fatal("Ask did not return")
	}
	assert.Empty(t, history(t, c))
}

func TestLoad_DiscardsInFlightReply(t *testing.T) {
	answerer, started, release := blockingAnswerer("stale", nil)
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "old context"))

	errs := make(chan error, 1)
	go func() {
		_, err := c.Ask(ctx, "about the old docs?")
		errs <- err
	}()
	<-started

	require.NoError(t, c.Load(ctx, "new context"))
	assert.True(t, c.Ready(), "a new context accepts questions immediately")

	close(release)
	assert.ErrorIs(t, <-errs, ErrReplyDiscarded)

	turns := history(t, c)
	require.Len(t, turns, 1)
	assert.Equal(t, WelcomeMessage, turns[0].Text)
}

func TestAsk_PanickingAnswererYieldsApology(t *testing.T) {
	calls := 0
	answerer := mock.NewMockAnswerer().WithGenerateFunc(func(ctx context.Context, docContext, question string) (string, error) {
		calls++
		if calls == 1 {
			panic("client exploded")
		}
		return "fine now", nil
	})
	c := newTestController(t, answerer)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	reply, err := c.Ask(ctx, "First?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Sorry, I encountered an error: ")
	assert.Contains(t, reply.Text, "client exploded")
	assert.ErrorIs(t, c.LastError(), ai.ErrInference)
	assert.False(t, c.Awaiting())

	reply, err = c.Ask(ctx, "Second?")
	require.NoError(t, err)
	assert.Equal(t, "fine now", reply.Text)

	turns := history(t, c)
	require.Len(t, turns, 5)
	for i, want := range []core.Speaker{core.SpeakerModel, core.SpeakerUser, core.SpeakerModel, core.SpeakerUser, core.SpeakerModel} {
		assert.Equal(t, want, turns[i].Speaker, "turn %d", i)
	}
}

func TestAsk_CallerCancellationDoesNotAbortInference(t *testing.T) {
	answerer := mock.NewMockAnswerer().WithGenerateFunc(func(ctx context.Context, docContext, question string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ai.ErrInference, err)
		}
		return "the real answer", nil
	})
	c := newTestController(t, answerer)
	require.NoError(t, c.Load(context.Background(), "Hello"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := c.Ask(ctx, "What?")
	require.NoError(t, err)
	assert.Equal(t, "the real answer", reply.Text)
	assert.NoError(t, c.LastError())

	turns := history(t, c)
	require.Len(t, turns, 3)
	assert.Equal(t, "the real answer", turns[2].Text)
}

// replyFailingRepository fails every Model turn append once failReplies is set.
type replyFailingRepository struct {
	storage.TurnRepository
	failReplies bool
}

func (r *replyFailingRepository) AppendTurns(ctx context.Context, turns ...*core.ChatTurn) ([]*core.ChatTurn, error) {
	for _, turn := range turns {
		if r.failReplies && turn.Speaker == core.SpeakerModel {
			return nil, errors.New("disk full")
		}
	}
	return r.TurnRepository.AppendTurns(ctx, turns...)
}

func TestAsk_ReplyAppendFailureIsReported(t *testing.T) {
	inner, err := badger.NewMemoryTurnRepository()
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })
	repo := &replyFailingRepository{TurnRepository: inner}

	c, err := NewController(mock.NewMockAnswerer(), repo)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "Hello"))

	repo.failReplies = true
	_, err = c.Ask(ctx, "What?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append reply: disk full")
	assert.EqualError(t, c.LastError(), "disk full")
	assert.False(t, c.Awaiting())

	repo.failReplies = false
	reply, err := c.Ask(ctx, "Again?")
	require.NoError(t, err)
	assert.Equal(t, "mock answer to: Again?", reply.Text)
}
