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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/extract"
)

// Dispatcher extracts the text of a single file.
// *extract.Dispatcher is the production implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, file core.File) (string, error)
}

// Observer receives a snapshot of every record after each state transition.
// Snapshots are copies; observers may keep them. Calls are serialized.
type Observer func(records []core.FileRecord)

// Coordinator runs extraction for a batch of files concurrently and
// aggregates the successful outputs into one context.
type Coordinator struct {
	dispatcher Dispatcher
	pool       *ants.Pool
	cache      *lru.Cache[core.ID, string]
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize bounds the number of extractions running at once.
// Default is unbounded so that no file waits on another.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = -1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		// Release old pool
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		return nil
	}
}

// WithCacheSize sets how many extraction results are remembered by content
// fingerprint. Zero disables the cache. Default is 64.
func WithCacheSize(size int) Option {
	return func(c *Coordinator) error {
		if size <= 0 {
			c.cache = nil
			return nil
		}
		cache, err := lru.New[core.ID, string](size)
		if err != nil {
			return err
		}
		c.cache = cache
		return nil
	}
}

// WithObserver registers a callback for live progress snapshots.
func WithObserver(observer Observer) Option {
	return func(c *Coordinator) error {
		c.observer = observer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a new ingestion coordinator.
func NewCoordinator(dispatcher Dispatcher, opts ...Option) (*Coordinator, error) {
	if dispatcher == nil {
		return nil, ErrDispatcherRequired
	}

	pool, err := ants.NewPool(-1)
	if err != nil {
		return nil, err
	}

	cache, err := lru.New[core.ID, string](64)
	if err != nil {
		pool.Release()
		return nil, err
	}

	c := &Coordinator{
		dispatcher: dispatcher,
		pool:       pool,
		cache:      cache,
		logger:     slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Ingest extracts every file concurrently and waits for all of them to settle.
//
// Records are returned in submission order regardless of completion order.
// A failing file never aborts its siblings. If no file reaches Processed,
// the returned Batch still carries every record and the error is
// ErrNoDocumentsProcessed.
func (c *Coordinator) Ingest(ctx context.Context, files []core.File) (*Batch, error) {
	return c.IngestObserved(ctx, files, nil)
}

// IngestObserved is Ingest with an extra observer for this batch only.
// It is called after the coordinator-wide observer for every snapshot.
func (c *Coordinator) IngestObserved(ctx context.Context, files []core.File, observer Observer) (*Batch, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if c.pool.IsClosed() {
		return nil, ErrCoordinatorReleased
	}

	batch := &Batch{
		ID:      uuid.NewString(),
		Records: make([]core.FileRecord, len(files)),
	}
	logger := c.logger.With("batch", batch.ID)

	var mu sync.Mutex
	for i, file := range files {
		batch.Records[i] = core.NewFileRecord(file)
	}
	c.notify(observer, batch.Records)

	for i := range batch.Records {
		batch.Records[i], _ = batch.Records[i].Start()
	}
	c.notify(observer, batch.Records)

	logger.Info("ingesting batch", "files", len(files))

	settle := func(i int, text string, err error) {
		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			logger.Warn("extraction failed", "file", files[i].Name, "err", err)
			batch.Records[i], _ = batch.Records[i].Fail(err)
		} else {
			logger.Debug("extraction succeeded", "file", files[i].Name, "length", len(text))
			batch.Records[i], _ = batch.Records[i].Complete(text)
		}
		c.notify(observer, batch.Records)
	}

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		submitErr := c.pool.Submit(func() {
			defer wg.Done()
			text, err := c.extract(ctx, file)
			settle(i, text, err)
		})
		if submitErr != nil {
			wg.Done()
			settle(i, "", fmt.Errorf("schedule extraction: %w", submitErr))
		}
	}
	wg.Wait()

	batch.Context = BuildContext(batch.Records)
	processed, errored := batch.Counts()
	logger.Info("batch settled", "processed", processed, "errored", errored, "context_length", len(batch.Context))

	if processed == 0 {
		return batch, ErrNoDocumentsProcessed
	}
	return batch, nil
}

// extract dispatches one file, consulting the cache first. Only successful
// results are cached; the key covers both the format and the bytes.
func (c *Coordinator) extract(ctx context.Context, file core.File) (string, error) {
	if err := core.ValidateFile(file); err != nil {
		return "", err
	}

	key := cacheKey(file)
	if c.cache != nil {
		if text, ok := c.cache.Get(key); ok {
			c.logger.Debug("extraction cache hit", "file", file.Name)
			return text, nil
		}
	}

	text, err := c.dispatcher.Dispatch(ctx, file)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Add(key, text)
	}
	return text, nil
}

func cacheKey(file core.File) core.ID {
	ext := extract.Extension(file.Name)
	content := make([]byte, 0, len(ext)+1+len(file.Data))
	content = append(content, ext...)
	content = append(content, 0)
	content = append(content, file.Data...)
	return core.IDFromContent(content)
}

func (c *Coordinator) notify(observer Observer, records []core.FileRecord) {
	if c.observer != nil {
		c.observer(slices.Clone(records))
	}
	if observer != nil {
		observer(slices.Clone(records))
	}
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
