// Package relayer follows a bitcoind node and feeds its blocks through the
// engine: headers and transactions are stored, then each transaction is
// proven against its block with a Merkle branch.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/clock"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/bitcoin"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"go.uber.org/zap"
)

var (
	// ErrNetworkMismatch is returned when the node serves a different chain than configured.
	ErrNetworkMismatch = errors.New("node genesis does not match network")
	// ErrDigestMismatch is returned when the engine derives a different hash than the node reports.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrProofRejected is returned when a branch built from a block does not verify.
	ErrProofRejected = errors.New("merkle proof rejected")
)

const (
	defaultWorkers       = 8
	defaultPollInterval  = 30 * time.Second
	defaultRetryInterval = time.Second
	defaultMaxRetry      = time.Minute
)

// Config tunes the relay loop.
type Config struct {
	Network     model.Network
	StartHeight int64
	// Watch restricts transaction ingestion to these txids. Empty means every transaction.
	Watch        []chainhash.Hash
	Workers      int
	PollInterval time.Duration
	RetryMin     time.Duration
	RetryMax     time.Duration
}

// Result summarises one relayed block.
type Result struct {
	Height    int64
	Digest    chainhash.Hash
	Stored    int
	Skipped   int
	Validated int
}

// Relayer copies blocks from a Source into an Engine.
type Relayer struct {
	source  Source
	engine  Engine
	metrics Metrics
	logger  *zap.Logger
	signal  <-chan struct{}

	genesis      chainhash.Hash
	watch        map[chainhash.Hash]struct{}
	workers      int
	pollInterval time.Duration
	backoff      clock.Backoff
	next         int64
}

// New builds a Relayer. signal may be nil; when set, each receive wakes the
// loop before the poll interval elapses.
func New(source Source, engine Engine, metrics Metrics, logger *zap.Logger, cfg Config, signal <-chan struct{}) (*Relayer, error) {
	params, err := bitcoin.ChainParams(cfg.Network)
	if err != nil {
		return nil, err
	}
	if cfg.StartHeight < 0 {
		return nil, fmt.Errorf("start height %d is negative", cfg.StartHeight)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = defaultRetryInterval
	}
	if cfg.RetryMax < cfg.RetryMin {
		cfg.RetryMax = max(defaultMaxRetry, cfg.RetryMin)
	}

	var watch map[chainhash.Hash]struct{}
	if len(cfg.Watch) > 0 {
		watch = make(map[chainhash.Hash]struct{}, len(cfg.Watch))
		for _, txid := range cfg.Watch {
			watch[txid] = struct{}{}
		}
	}

	return &Relayer{
		source:       source,
		engine:       engine,
		metrics:      metrics,
		logger:       logger.Named("relayer").With(zap.String("network", string(cfg.Network))),
		signal:       signal,
		genesis:      *params.GenesisHash,
		watch:        watch,
		workers:      cfg.Workers,
		pollInterval: cfg.PollInterval,
		backoff:      clock.Backoff{Min: cfg.RetryMin, Max: cfg.RetryMax},
		next:         cfg.StartHeight,
	}, nil
}

// Run relays blocks until ctx is canceled. Failed iterations are retried
// with exponential back-off; a node on the wrong network stops the loop.
func (r *Relayer) Run(ctx context.Context) error {
	if err := r.checkNetwork(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		caughtUp, err := r.step(ctx)
		if err != nil {
			delay := r.backoff.Next()
			r.logger.Warn("relay iteration failed, backing off",
				zap.Int64("height", r.next),
				zap.Duration("sleep", delay),
				zap.Error(err),
			)
			if sleepErr := clock.SleepWithContext(ctx, delay); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		r.backoff.Reset()

		if caughtUp {
			r.logger.Debug("caught up with node; waiting", zap.Int64("next", r.next))
			if _, err := clock.Wait(ctx, r.pollInterval, r.signal); err != nil {
				return err
			}
		}
	}
}

func (r *Relayer) checkNetwork() error {
	hash, err := r.source.GetBlockHash(0)
	if err != nil {
		return fmt.Errorf("get genesis hash: %w", err)
	}
	if *hash != r.genesis {
		return fmt.Errorf("%w: node %s, want %s", ErrNetworkMismatch, hash, r.genesis)
	}
	return nil
}

// step relays the next block if the node has it and reports whether the
// relayer has caught up with the node tip.
func (r *Relayer) step(ctx context.Context) (bool, error) {
	count, err := r.source.GetBlockCount()
	if err != nil {
		return false, fmt.Errorf("get block count: %w", err)
	}
	if r.next > count {
		return true, nil
	}

	res, err := r.RelayBlock(ctx, r.next)
	if err != nil {
		return false, err
	}
	r.logger.Info("block relayed",
		zap.Int64("height", res.Height),
		zap.Stringer("digest", res.Digest),
		zap.Int("stored", res.Stored),
		zap.Int("skipped", res.Skipped),
		zap.Int("validated", res.Validated),
	)
	r.next++
	return false, nil
}
