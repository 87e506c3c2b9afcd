// Package bitcoin parses raw Bitcoin block headers and transactions into the
// records kept by the SPV store.
package bitcoin

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/codec"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/digest"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

// HeaderSize is the length of a serialized block header.
const HeaderSize = 80

var targetMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseHeader decodes an 80-byte block header.
func ParseHeader(raw []byte) (model.Header, error) {
	if len(raw) != HeaderSize {
		return model.Header{}, parseErr(WrongLength, 0, fmt.Errorf("header is %d bytes, want %d", len(raw), HeaderSize))
	}

	var (
		h   model.Header
		err error
	)
	fail := func(off int, err error) (model.Header, error) {
		return model.Header{}, parseErr(OutOfBounds, off, err)
	}

	version, err := codec.Uint32(raw, 0, binary.LittleEndian)
	if err != nil {
		return fail(0, err)
	}
	if h.PrevBlock, err = codec.Hash(raw, 4); err != nil {
		return fail(4, err)
	}
	if h.MerkleRoot, err = codec.Hash(raw, 36); err != nil {
		return fail(36, err)
	}
	if h.Timestamp, err = codec.Uint32(raw, 68, binary.LittleEndian); err != nil {
		return fail(68, err)
	}
	if h.Bits, err = codec.Uint32(raw, 72, binary.LittleEndian); err != nil {
		return fail(72, err)
	}
	if h.Nonce, err = codec.Uint32(raw, 76, binary.LittleEndian); err != nil {
		return fail(76, err)
	}

	h.Version = int32(version)
	h.Target = ExpandTarget(h.Bits)
	h.Digest = digest.Hash256(raw)
	return h, nil
}

// ExpandTarget expands compact difficulty bits into a 256-bit big-endian
// target. Negative encodings are taken by magnitude and values wider than
// 256 bits are truncated to their low 256 bits.
func ExpandTarget(bits uint32) model.Target {
	n := blockchain.CompactToBig(bits)
	n.Abs(n)
	n.And(n, targetMask)

	var t model.Target
	n.FillBytes(t[:])
	return t
}

// CheckProofOfWork reports ErrInsufficientWork unless the header digest,
// read as a little-endian number, is at most its target.
func CheckProofOfWork(h model.Header) error {
	target := h.Target.Big()
	if target.Sign() <= 0 {
		return fmt.Errorf("%w: zero target from bits %08x", ErrInsufficientWork, h.Bits)
	}
	if blockchain.HashToBig(&h.Digest).Cmp(target) > 0 {
		return fmt.Errorf("%w: block %s above target", ErrInsufficientWork, h.Digest)
	}
	return nil
}
