// Package eventlog persists engine events to an append-only log in batches.
package eventlog

import (
	"context"
	"sync"

	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/pkg/batcher"
	"go.uber.org/zap"
)

// Writer buffers events from a Source and appends them to a Repository.
// Events arriving while the buffer is full are dropped and counted so the
// engine never blocks on the log.
type Writer struct {
	repo    Repository
	metrics Metrics
	logger  *zap.Logger
	batch   *batcher.Batcher[model.Event]

	mu          sync.Mutex
	unsubscribe func()
}

// NewWriter creates a Writer. Call Start to begin consuming events.
func NewWriter(repo Repository, metrics Metrics, logger *zap.Logger, cfg batcher.Config) *Writer {
	w := &Writer{
		repo:    repo,
		metrics: metrics,
		logger:  logger.Named("eventlog"),
	}
	w.batch = batcher.New(w.logger, w.flush, cfg)
	return w
}

// Start subscribes to src and runs the flush loop until ctx ends or Stop is called.
func (w *Writer) Start(ctx context.Context, src Source) {
	w.batch.Start(ctx)

	w.mu.Lock()
	w.unsubscribe = src.Subscribe(w.Handle)
	w.mu.Unlock()
}

// Handle queues ev without blocking.
func (w *Writer) Handle(ev model.Event) {
	if w.batch.TryAdd(ev) {
		return
	}
	w.metrics.ObserveDropped(1)
	w.logger.Warn("event dropped",
		zap.String("kind", string(ev.Kind)),
		zap.Stringer("txid", ev.TxID),
		zap.Stringer("digest", ev.Digest),
	)
}

// Stop unsubscribes and flushes whatever is still queued.
func (w *Writer) Stop() {
	w.mu.Lock()
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	w.batch.Stop()
}

func (w *Writer) flush(ctx context.Context, events []model.Event) error {
	err := w.repo.InsertEvents(ctx, events)
	w.metrics.ObserveFlush(len(events), err)
	return err
}
