// Package store keeps parsed headers and transactions keyed by digest.
//
// Records are append-only: inserts are idempotent and nothing is deleted.
// The only mutation is the one-way validation flag of a transaction.
package store

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

// ErrNotFound is returned for digests that were never stored.
var ErrNotFound = errors.New("record not found")

// Store is a digest-keyed record store safe for concurrent use.
type Store interface {
	// PutHeader inserts h unless its digest is known and returns the stored
	// header together with whether this call created it.
	PutHeader(h model.Header) (model.Header, bool, error)
	Header(digest chainhash.Hash) (model.Header, error)
	// PutTransaction inserts tx unless its txid is known. The validation
	// flag of a new record always starts false.
	PutTransaction(tx model.Transaction) (model.Transaction, bool, error)
	Transaction(txid chainhash.Hash) (model.Transaction, error)
	// MarkValidated sets the validation flag once. It reports whether this
	// call flipped it.
	MarkValidated(txid chainhash.Hash) (model.Transaction, bool, error)
	Close() error
}
