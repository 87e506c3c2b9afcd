// Package wiring assembles the store, engine and event log for the binaries.
package wiring

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/spvstore-backend/internal/metrics"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/eventlog"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/repository/clickhouse"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/store"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/store/bolt"
	"github.com/goodnatureofminers/spvstore-backend/pkg/batcher"
	"go.uber.org/zap"
)

// Records is a record store that can report its health.
type Records interface {
	store.Store
	Ping() error
}

// OpenStore opens the bolt database at path, or an in-memory store when path is empty.
func OpenStore(path string, logger *zap.Logger) (Records, error) {
	if path == "" {
		logger.Info("using in-memory record store")
		return store.NewMemory(), nil
	}
	s, err := bolt.Open(path, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("using bolt record store", zap.String("path", path))
	return s, nil
}

// Policy selects optional engine checks. Embed it as a go-flags group with
// an env-namespace to get prefixed environment variables.
type Policy struct {
	ProofOfWork  bool `long:"proof-of-work" env:"PROOF_OF_WORK" description:"reject headers whose digest exceeds their target"`
	AnyTxVersion bool `long:"any-tx-version" env:"ANY_TX_VERSION" description:"accept transactions of any version"`
}

// Options converts the policy into engine options.
func (p Policy) Options() []service.Option {
	var opts []service.Option
	if p.ProofOfWork {
		opts = append(opts, service.WithProofOfWork())
	}
	if p.AnyTxVersion {
		opts = append(opts, service.WithAnyTxVersion())
	}
	return opts
}

// EventLog configures the ClickHouse event log.
type EventLog struct {
	DSN           string        `long:"clickhouse-dsn" env:"CLICKHOUSE_DSN" description:"ClickHouse DSN for the event log; disabled when empty"`
	FlushSize     int           `long:"event-flush-size" env:"EVENT_FLUSH_SIZE" default:"1000" description:"events per ClickHouse insert"`
	FlushInterval time.Duration `long:"event-flush-interval" env:"EVENT_FLUSH_INTERVAL" default:"1s" description:"maximum delay before buffered events are written"`
	QueueSize     int           `long:"event-queue-size" env:"EVENT_QUEUE_SIZE" default:"10000" description:"buffered events before new ones are dropped"`
}

// StartEventLog connects to ClickHouse and appends every event from src
// until stop is called. It returns a nil repository and a no-op stop when
// the DSN is empty.
func StartEventLog(ctx context.Context, cfg EventLog, src eventlog.Source, logger *zap.Logger) (repo *clickhouse.Repository, stop func(), err error) {
	if cfg.DSN == "" {
		return nil, func() {}, nil
	}

	repo, err = clickhouse.NewRepository(cfg.DSN, metrics.NewClickhouseRepository())
	if err != nil {
		return nil, nil, fmt.Errorf("init clickhouse repository: %w", err)
	}
	if err = repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, err
	}

	w := eventlog.NewWriter(repo, metrics.NewEventLog(), logger, batcher.Config{
		FlushSize:     cfg.FlushSize,
		FlushInterval: cfg.FlushInterval,
		RPS:           20,
		QueueSize:     cfg.QueueSize,
	})
	w.Start(ctx, src)

	return repo, func() {
		w.Stop()
		if err := repo.Close(); err != nil {
			logger.Warn("close clickhouse repository", zap.Error(err))
		}
	}, nil
}
