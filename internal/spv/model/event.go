package model

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// EventKind names a notification emitted by the engine.
type EventKind string

var (
	// HeaderStored is emitted for every accepted header.
	HeaderStored EventKind = "header_stored"
	// TransactionStored is emitted for every accepted transaction.
	TransactionStored EventKind = "transaction_stored"
	// Validated is emitted for every successful inclusion proof.
	Validated EventKind = "validated"
)

// Event describes a successful ingestion or validation.
type Event struct {
	Kind EventKind
	// Digest is the header digest; zero for TransactionStored.
	Digest chainhash.Hash
	// TxID is the transaction id; zero for HeaderStored.
	TxID chainhash.Hash
	// Duplicate reports that the record already existed.
	Duplicate bool
	At        time.Time
}
