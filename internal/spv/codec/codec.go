// Package codec reads integers and byte runs out of Bitcoin wire buffers.
//
// Every reader takes the buffer and an absolute offset and never mutates the
// buffer. Integer widths and byte order are always chosen by the caller.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	// ErrOutOfBounds is returned when a read would pass the end of the buffer.
	ErrOutOfBounds = errors.New("read out of bounds")
	// ErrNonCanonicalVarInt is returned for a varint that is not minimally encoded.
	ErrNonCanonicalVarInt = errors.New("non-canonical varint")
)

func checkBounds(buf []byte, off, n int) error {
	if off < 0 || n < 0 || off > len(buf) || n > len(buf)-off {
		return fmt.Errorf("%w: offset %d width %d buffer %d", ErrOutOfBounds, off, n, len(buf))
	}
	return nil
}

// Bytes returns a copy of n bytes starting at off.
func Bytes(buf []byte, off, n int) ([]byte, error) {
	if err := checkBounds(buf, off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out, nil
}

// Uint8 reads a single byte.
func Uint8(buf []byte, off int) (uint8, error) {
	if err := checkBounds(buf, off, 1); err != nil {
		return 0, err
	}
	return buf[off], nil
}

// Uint16 reads two bytes in the given order.
func Uint16(buf []byte, off int, order binary.ByteOrder) (uint16, error) {
	if err := checkBounds(buf, off, 2); err != nil {
		return 0, err
	}
	return order.Uint16(buf[off:]), nil
}

// Uint32 reads four bytes in the given order.
func Uint32(buf []byte, off int, order binary.ByteOrder) (uint32, error) {
	if err := checkBounds(buf, off, 4); err != nil {
		return 0, err
	}
	return order.Uint32(buf[off:]), nil
}

// Uint64 reads eight bytes in the given order.
func Uint64(buf []byte, off int, order binary.ByteOrder) (uint64, error) {
	if err := checkBounds(buf, off, 8); err != nil {
		return 0, err
	}
	return order.Uint64(buf[off:]), nil
}

// Hash reads an opaque 32-byte digest as it appears on the wire.
func Hash(buf []byte, off int) (chainhash.Hash, error) {
	var h chainhash.Hash
	if err := checkBounds(buf, off, chainhash.HashSize); err != nil {
		return h, err
	}
	copy(h[:], buf[off:off+chainhash.HashSize])
	return h, nil
}

// VarInt reads a Bitcoin CompactSize integer and returns the value together
// with the number of bytes it occupied.
func VarInt(buf []byte, off int) (uint64, int, error) {
	prefix, err := Uint8(buf, off)
	if err != nil {
		return 0, 0, err
	}

	var (
		value uint64
		size  int
		floor uint64
	)
	switch prefix {
	case 0xfd:
		v, err := Uint16(buf, off+1, binary.LittleEndian)
		if err != nil {
			return 0, 0, err
		}
		value, size, floor = uint64(v), 3, 0xfd
	case 0xfe:
		v, err := Uint32(buf, off+1, binary.LittleEndian)
		if err != nil {
			return 0, 0, err
		}
		value, size, floor = uint64(v), 5, 0x10000
	case 0xff:
		v, err := Uint64(buf, off+1, binary.LittleEndian)
		if err != nil {
			return 0, 0, err
		}
		value, size, floor = v, 9, 0x100000000
	default:
		return uint64(prefix), 1, nil
	}

	if value < floor {
		return 0, 0, fmt.Errorf("%w: %d encoded in %d bytes at offset %d", ErrNonCanonicalVarInt, value, size, off)
	}
	return value, size, nil
}

// Reverse returns a reversed copy of b. It converts between the internal byte
// order of digests and the order block explorers display.
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
