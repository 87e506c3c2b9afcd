// Package service wires parsing, storage and proof checking into the
// operations exposed by the SPV store.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/bitcoin"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/digest"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/merkle"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/store"
	"go.uber.org/zap"
)

const (
	operationIngestHeader      = "ingest_header"
	operationIngestTransaction = "ingest_transaction"
	operationValidate          = "validate"

	outcomeStored    = "stored"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeValid     = "valid"
	outcomeInvalid   = "invalid"
	outcomeUnknown   = "unknown"
	outcomeError     = "error"
)

// Engine ingests headers and transactions and validates inclusion proofs.
// Every call completes synchronously and is safe for concurrent use when
// the store is.
type Engine struct {
	store    Store
	notifier Notifier
	metrics  Metrics
	logger   *zap.Logger
	now      func() time.Time

	proofOfWork bool
	parseOpts   []bitcoin.ParseOption
}

// Option configures an Engine.
type Option func(*Engine)

// WithProofOfWork rejects headers whose digest does not meet their own target.
func WithProofOfWork() Option {
	return func(e *Engine) {
		e.proofOfWork = true
	}
}

// WithAnyTxVersion accepts transactions of any version.
func WithAnyTxVersion() Option {
	return func(e *Engine) {
		e.parseOpts = append(e.parseOpts, bitcoin.WithAnyVersion())
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine builds an engine over the given store.
func NewEngine(records Store, notifier Notifier, metrics Metrics, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    records,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Receipt describes a successful ingestion.
type Receipt struct {
	Hash      chainhash.Hash
	Duplicate bool
}

// ParseAndStoreHeader parses an 80-byte header, stores it unless its digest
// is known and returns the digest. Rejected input stores nothing.
func (e *Engine) ParseAndStoreHeader(raw []byte) (chainhash.Hash, error) {
	r, err := e.IngestHeader(raw)
	return r.Hash, err
}

// IngestHeader is ParseAndStoreHeader that also reports whether the digest
// was already stored.
func (e *Engine) IngestHeader(raw []byte) (Receipt, error) {
	started := time.Now()
	outcome := outcomeError
	defer func() {
		e.metrics.Observe(operationIngestHeader, outcome, started)
	}()

	h, err := bitcoin.ParseHeader(raw)
	if err != nil {
		outcome = outcomeRejected
		e.logger.Debug("header rejected", zap.Int("size", len(raw)), zap.Error(err))
		return Receipt{Hash: digest.Zero}, fmt.Errorf("parse header: %w", err)
	}
	if e.proofOfWork {
		if err := bitcoin.CheckProofOfWork(h); err != nil {
			outcome = outcomeRejected
			e.logger.Debug("header rejected", zap.Stringer("digest", h.Digest), zap.Error(err))
			return Receipt{Hash: digest.Zero}, fmt.Errorf("check header: %w", err)
		}
	}

	_, created, err := e.store.PutHeader(h)
	if err != nil {
		return Receipt{Hash: digest.Zero}, fmt.Errorf("store header: %w", err)
	}

	outcome = outcomeFor(created)
	e.notifier.Notify(model.Event{
		Kind:      model.HeaderStored,
		Digest:    h.Digest,
		Duplicate: !created,
		At:        e.now(),
	})
	e.logger.Debug("header stored", zap.Stringer("digest", h.Digest), zap.Bool("duplicate", !created))
	return Receipt{Hash: h.Digest, Duplicate: !created}, nil
}

// ParseAndStoreTransaction parses a raw transaction, stores its record unless
// the txid is known and returns the txid. Rejected input stores nothing.
func (e *Engine) ParseAndStoreTransaction(raw []byte) (chainhash.Hash, error) {
	r, err := e.IngestTransaction(raw)
	return r.Hash, err
}

// IngestTransaction is ParseAndStoreTransaction that also reports whether
// the txid was already stored.
func (e *Engine) IngestTransaction(raw []byte) (Receipt, error) {
	started := time.Now()
	outcome := outcomeError
	defer func() {
		e.metrics.Observe(operationIngestTransaction, outcome, started)
	}()

	tx, err := bitcoin.ParseTransaction(raw, e.parseOpts...)
	if err != nil {
		outcome = outcomeRejected
		e.logger.Debug("transaction rejected", zap.Int("size", len(raw)), zap.Error(err))
		return Receipt{Hash: digest.Zero}, fmt.Errorf("parse transaction: %w", err)
	}

	_, created, err := e.store.PutTransaction(tx.Record())
	if err != nil {
		return Receipt{Hash: digest.Zero}, fmt.Errorf("store transaction: %w", err)
	}

	outcome = outcomeFor(created)
	e.notifier.Notify(model.Event{
		Kind:      model.TransactionStored,
		TxID:      tx.TxID,
		Duplicate: !created,
		At:        e.now(),
	})
	e.logger.Debug("transaction stored",
		zap.Stringer("txid", tx.TxID),
		zap.Int("inputs", len(tx.Inputs)),
		zap.Int("outputs", len(tx.Outputs)),
		zap.Bool("duplicate", !created),
	)
	return Receipt{Hash: tx.TxID, Duplicate: !created}, nil
}

// Validate checks that txid is included under the header with the given
// digest. A proof that does not fold to the merkle root is a normal false
// result, not an error.
func (e *Engine) Validate(txid, headerDigest chainhash.Hash, proof model.Proof) (bool, error) {
	started := time.Now()
	outcome := outcomeError
	defer func() {
		e.metrics.Observe(operationValidate, outcome, started)
	}()

	tx, err := e.Transaction(txid)
	if err != nil {
		if errors.Is(err, ErrUnknownTransaction) {
			outcome = outcomeUnknown
		}
		return false, err
	}
	h, err := e.Header(headerDigest)
	if err != nil {
		if errors.Is(err, ErrUnknownHeader) {
			outcome = outcomeUnknown
		}
		return false, err
	}

	if !merkle.Verify(tx.TxID, h.MerkleRoot, proof.Siblings, proof.Index) {
		outcome = outcomeInvalid
		e.logger.Debug("inclusion proof rejected",
			zap.Stringer("txid", txid),
			zap.Stringer("digest", headerDigest),
			zap.Uint64("index", proof.Index),
			zap.Int("depth", len(proof.Siblings)),
		)
		return false, nil
	}

	_, changed, err := e.store.MarkValidated(txid)
	if err != nil {
		return false, fmt.Errorf("mark transaction validated: %w", err)
	}

	outcome = outcomeValid
	e.notifier.Notify(model.Event{
		Kind:      model.Validated,
		Digest:    headerDigest,
		TxID:      txid,
		Duplicate: !changed,
		At:        e.now(),
	})
	e.logger.Info("transaction validated", zap.Stringer("txid", txid), zap.Stringer("digest", headerDigest))
	return true, nil
}

// Header returns the stored header with the given digest.
func (e *Engine) Header(headerDigest chainhash.Hash) (model.Header, error) {
	h, err := e.store.Header(headerDigest)
	if errors.Is(err, store.ErrNotFound) {
		return model.Header{}, fmt.Errorf("%w %s", ErrUnknownHeader, headerDigest)
	}
	if err != nil {
		return model.Header{}, fmt.Errorf("load header: %w", err)
	}
	return h, nil
}

// Transaction returns the stored transaction with the given txid.
func (e *Engine) Transaction(txid chainhash.Hash) (model.Transaction, error) {
	tx, err := e.store.Transaction(txid)
	if errors.Is(err, store.ErrNotFound) {
		return model.Transaction{}, fmt.Errorf("%w %s", ErrUnknownTransaction, txid)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	return tx, nil
}

func outcomeFor(created bool) string {
	if created {
		return outcomeStored
	}
	return outcomeDuplicate
}
