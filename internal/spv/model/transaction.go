package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Transaction is the stored summary of a parsed transaction keyed by its txid.
type Transaction struct {
	TxID       chainhash.Hash
	Version    int32
	NumInputs  uint32
	NumOutputs uint32
	LockTime   uint32
	HasWitness bool
	// ValidationComplete is set once the transaction passed an inclusion proof.
	ValidationComplete bool
}

// Proof is a Merkle inclusion path supplied with a validation request.
// Bit i of Index tells whether the node at level i is a right child.
type Proof struct {
	Siblings []chainhash.Hash
	Index    uint64
}
