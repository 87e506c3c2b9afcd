// Package merkle verifies and builds Bitcoin Merkle inclusion proofs.
package merkle

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/digest"
)

var (
	// ErrMalformedTree is returned for arrays that are not a padded Merkle tree store.
	ErrMalformedTree = errors.New("malformed merkle tree store")
	// ErrLeafOutOfRange is returned when the leaf index points past the last leaf.
	ErrLeafOutOfRange = errors.New("leaf index out of range")
)

// Verify folds leaf up through siblings and reports whether the result equals
// root. Bit i of index selects the side of level i: 0 means the running hash
// is the left child. An empty proof is valid only when leaf equals root.
func Verify(leaf, root chainhash.Hash, siblings []chainhash.Hash, index uint64) bool {
	current := leaf
	for _, sibling := range siblings {
		if index&1 == 0 {
			current = digest.MerkleParent(current, sibling)
		} else {
			current = digest.MerkleParent(sibling, current)
		}
		index >>= 1
	}
	return current == root
}

// BranchFromTreeStore extracts the sibling path of one leaf from the array
// produced by blockchain.BuildMerkleTreeStore. A missing right sibling stands
// for a copy of the node itself, as Bitcoin duplicates the last node of an
// odd level.
func BranchFromTreeStore(store []*chainhash.Hash, index uint64) ([]chainhash.Hash, error) {
	width := uint64(len(store)+1) / 2
	if len(store) == 0 || width&(width-1) != 0 || uint64(len(store)) != 2*width-1 {
		return nil, fmt.Errorf("%w: %d nodes", ErrMalformedTree, len(store))
	}
	if index >= width || store[index] == nil {
		return nil, fmt.Errorf("%w: %d", ErrLeafOutOfRange, index)
	}

	var (
		branch []chainhash.Hash
		offset uint64
		pos    = index
	)
	for ; width > 1; width >>= 1 {
		node := store[offset+pos]
		if node == nil {
			return nil, fmt.Errorf("%w: missing node at %d", ErrMalformedTree, offset+pos)
		}
		sibling := store[offset+(pos^1)]
		if sibling == nil {
			sibling = node
		}
		branch = append(branch, *sibling)

		offset += width
		pos >>= 1
	}
	return branch, nil
}
