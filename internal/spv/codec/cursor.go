package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Cursor walks a buffer front to back. Only its own position changes.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current read position.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// PeekUint8 returns the byte ahead bytes past the current position without
// consuming anything.
func (c *Cursor) PeekUint8(ahead int) (uint8, error) {
	return Uint8(c.buf, c.off+ahead)
}

// Skip advances over n bytes.
func (c *Cursor) Skip(n int) error {
	if err := checkBounds(c.buf, c.off, n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// Uint32LE consumes a little-endian uint32.
func (c *Cursor) Uint32LE() (uint32, error) {
	v, err := Uint32(c.buf, c.off, binary.LittleEndian)
	if err != nil {
		return 0, err
	}
	c.off += 4
	return v, nil
}

// Uint64LE consumes a little-endian uint64.
func (c *Cursor) Uint64LE() (uint64, error) {
	v, err := Uint64(c.buf, c.off, binary.LittleEndian)
	if err != nil {
		return 0, err
	}
	c.off += 8
	return v, nil
}

// Hash consumes a 32-byte digest.
func (c *Cursor) Hash() (chainhash.Hash, error) {
	h, err := Hash(c.buf, c.off)
	if err != nil {
		return h, err
	}
	c.off += chainhash.HashSize
	return h, nil
}

// VarInt consumes a CompactSize integer.
func (c *Cursor) VarInt() (uint64, error) {
	v, n, err := VarInt(c.buf, c.off)
	if err != nil {
		return 0, err
	}
	c.off += n
	return v, nil
}

// VarBytes consumes a CompactSize length followed by that many bytes.
func (c *Cursor) VarBytes() ([]byte, error) {
	start := c.off
	length, n, err := VarInt(c.buf, c.off)
	if err != nil {
		return nil, err
	}
	if length > uint64(len(c.buf)-start-n) {
		return nil, fmt.Errorf("%w: length %d at offset %d exceeds buffer %d", ErrOutOfBounds, length, start, len(c.buf))
	}
	b, err := Bytes(c.buf, start+n, int(length))
	if err != nil {
		return nil, err
	}
	c.off = start + n + int(length)
	return b, nil
}

// Span returns a copy of the bytes between two absolute offsets.
func (c *Cursor) Span(from, to int) ([]byte, error) {
	return Bytes(c.buf, from, to-from)
}
