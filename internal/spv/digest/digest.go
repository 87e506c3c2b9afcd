// Package digest computes the double-SHA256 digests Bitcoin uses for block
// headers, transactions and Merkle tree nodes.
package digest

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Zero is the all-zero digest. Older callers treat it as "no result".
var Zero chainhash.Hash

// Hash256 returns SHA256(SHA256(b)).
func Hash256(b []byte) chainhash.Hash {
	return chainhash.DoubleHashH(b)
}

// MerkleParent hashes the concatenation of two child nodes.
func MerkleParent(left, right chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}
