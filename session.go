// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package docchat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/conversation"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/extract"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/storage"
	"github.com/poiesic/docchat/storage/badger"
)

// Session ties one ingestion coordinator to one conversation. Submitting a
// batch replaces the documents and the chat; Clear empties both.
type Session struct {
	id          string
	provider    ai.Provider
	turns       storage.TurnRepository
	coordinator *ingestion.Coordinator
	controller  *conversation.Controller
	observer    ingestion.Observer
	logger      *slog.Logger

	mu         sync.Mutex
	records    []core.FileRecord
	processing bool
	// generation increments on every Submit and Clear.
	generation uint64
	batchErr   error
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	dispatcher ingestion.Dispatcher
	ingestOpts []ingestion.Option
	observer   ingestion.Observer
	logger     *slog.Logger
}

// WithAIConfig sets the inference configuration used to build the provider.
func WithAIConfig(config *ai.Config) SessionOption {
	return func(o *sessionOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses an existing provider instead of building one.
// The session closes it on Close.
func WithProvider(provider ai.Provider) SessionOption {
	return func(o *sessionOptions) {
		o.provider = provider
	}
}

// WithDispatcher replaces the default extract.Dispatcher.
func WithDispatcher(dispatcher ingestion.Dispatcher) SessionOption {
	return func(o *sessionOptions) {
		o.dispatcher = dispatcher
	}
}

// WithIngestionOptions passes options through to the ingestion coordinator.
func WithIngestionOptions(opts ...ingestion.Option) SessionOption {
	return func(o *sessionOptions) {
		o.ingestOpts = append(o.ingestOpts, opts...)
	}
}

// WithFileObserver registers a callback for live record snapshots of the
// current batch. Snapshots of a discarded batch are not delivered.
func WithFileObserver(observer ingestion.Observer) SessionOption {
	return func(o *sessionOptions) {
		o.observer = observer
	}
}

// WithSessionLogger sets a custom logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// NewSession creates an empty session with in-memory chat history.
func NewSession(opts ...SessionOption) (*Session, error) {
	options := &sessionOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	id := uuid.NewString()
	logger := options.logger.With("session", id)

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	dispatcher := options.dispatcher
	if dispatcher == nil {
		dispatcher = extract.NewDispatcher(extract.WithDispatcherLogger(logger.With("component", "extract")))
	}

	turns, err := badger.NewMemoryTurnRepository()
	if err != nil {
		provider.Close()
		return nil, err
	}

	ingestOpts := append([]ingestion.Option{ingestion.WithLogger(logger.With("component", "ingestion"))}, options.ingestOpts...)
	coordinator, err := ingestion.NewCoordinator(dispatcher, ingestOpts...)
	if err != nil {
		turns.Close()
		provider.Close()
		return nil, err
	}

	controller, err := conversation.NewController(provider.Answerer(), turns,
		conversation.WithLogger(logger.With("component", "conversation")))
	if err != nil {
		coordinator.Release()
		turns.Close()
		provider.Close()
		return nil, err
	}

	return &Session{
		id:          id,
		provider:    provider,
		turns:       turns,
		coordinator: coordinator,
		controller:  controller,
		observer:    options.observer,
		logger:      logger,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Submit ingests a new batch, replacing the previous documents and chat.
//
// An empty batch is a no-op and returns (nil, nil). If no file is processed
// the returned batch still carries every record, the error wraps
// ingestion.ErrNoDocumentsProcessed and LastError reports BatchFailureMessage.
// On success the conversation starts with the welcome turn.
func (s *Session) Submit(ctx context.Context, files []core.File) (*ingestion.Batch, error) {
	if len(files) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.generation++
	generation := s.generation
	s.processing = true
	s.records = nil
	s.batchErr = nil
	if err := s.controller.Reset(ctx); err != nil {
		s.processing = false
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	batch, err := s.coordinator.IngestObserved(ctx, files, func(records []core.FileRecord) {
		s.mu.Lock()
		current := s.generation == generation
		if current {
			s.records = records
		}
		s.mu.Unlock()

		if current && s.observer != nil {
			s.observer(records)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		s.logger.Info("dropping results of a discarded batch")
		return batch, ErrBatchDiscarded
	}
	s.processing = false

	switch {
	case errors.Is(err, ingestion.ErrNoDocumentsProcessed):
		s.records = batch.Records
		s.batchErr = &UserError{Message: BatchFailureMessage, Err: err}
		return batch, err
	case err != nil:
		s.batchErr = err
		return nil, err
	}

	s.records = batch.Records
	if err := s.controller.Load(ctx, batch.Context); err != nil {
		return batch, err
	}
	return batch, nil
}

// Ask forwards a question to the conversation. See conversation.Controller.Ask.
func (s *Session) Ask(ctx context.Context, question string) (core.ChatTurn, error) {
	return s.controller.Ask(ctx, question)
}

// Clear drops the documents, the context, the chat and any in-flight work.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.processing = false
	s.records = nil
	s.batchErr = nil
	return s.controller.Reset(ctx)
}

// Files returns a snapshot of the current batch's records.
func (s *Session) Files() []core.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// History returns a snapshot of the chat turns.
func (s *Session) History(ctx context.Context) ([]core.ChatTurn, error) {
	return s.controller.History(ctx)
}

// Context returns the aggregated context of the current batch, or "".
func (s *Session) Context() string {
	return s.controller.Context()
}

// LastError returns the batch failure, or else the last question failure.
func (s *Session) LastError() error {
	s.mu.Lock()
	batchErr := s.batchErr
	s.mu.Unlock()

	if batchErr != nil {
		return batchErr
	}
	return s.controller.LastError()
}

// Busy reports whether a batch is processing or a question awaits its reply.
func (s *Session) Busy() bool {
	s.mu.Lock()
	processing := s.processing
	s.mu.Unlock()
	return processing || s.controller.Awaiting()
}

// Ready reports whether a question would be accepted now.
func (s *Session) Ready() bool {
	s.mu.Lock()
	processing := s.processing
	s.mu.Unlock()
	return !processing && s.controller.Ready()
}

// Snapshot is a read-only view of the session for presentation.
type Snapshot struct {
	ID        string            `json:"id"`
	Files     []core.FileRecord `json:"files"`
	Turns     []core.ChatTurn   `json:"turns"`
	Ready     bool              `json:"ready"`
	Busy      bool              `json:"busy"`
	LastError string            `json:"lastError,omitempty"`
}

// Snapshot captures the current files, turns and flags.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	turns, err := s.History(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		ID:    s.id,
		Files: s.Files(),
		Turns: turns,
		Ready: s.Ready(),
		Busy:  s.Busy(),
	}
	if snap.Files == nil {
		snap.Files = []core.FileRecord{}
	}
	if snap.Turns == nil {
		snap.Turns = []core.ChatTurn{}
	}
	if err := s.LastError(); err != nil {
		snap.LastError = err.Error()
	}
	return snap, nil
}

// Close releases the worker pool, the chat store and the provider.
func (s *Session) Close() error {
	s.coordinator.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.turns.Close(); err != nil {
		s.logger.Error("error closing turn repository", "err", err)
		return err
	}
	return nil
}
