// Package model defines the records kept by the SPV store.
package model

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Target is a 256-bit difficulty threshold in big-endian byte order.
type Target [32]byte

// Big returns the target as an integer.
func (t Target) Big() *big.Int {
	return new(big.Int).SetBytes(t[:])
}

// Header is a parsed 80-byte block header keyed by its digest.
type Header struct {
	Digest     chainhash.Hash
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Target     Target
	Nonce      uint32
}
