package bitcoin

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/codec"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/digest"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/pkg/safe"
)

const (
	minVersion = 1
	maxVersion = 3

	witnessMarker = 0x00
	witnessFlag   = 0x01

	// Smallest encodings, used to bound counts before allocating.
	minInputSize   = chainhash.HashSize + 4 + 1 + 4
	minOutputSize  = 8 + 1
	minWitnessItem = 1
)

var (
	errNoInputs         = errors.New("transaction has no inputs")
	errNoOutputs        = errors.New("transaction has no outputs")
	errEmptyWitness     = errors.New("witness flag set but every witness is empty")
	errUnexpectedMarker = errors.New("unexpected witness flag")
)

// Input is a transaction input.
type Input struct {
	PrevOut  wire.OutPoint
	Script   []byte
	Sequence uint32
	Witness  [][]byte
}

// Output is a transaction output.
type Output struct {
	Value  uint64
	Script []byte
}

// Transaction is a fully parsed transaction.
type Transaction struct {
	Version    int32
	Inputs     []Input
	Outputs    []Output
	HasWitness bool
	LockTime   uint32

	// TxID hashes the serialization without witness data.
	TxID chainhash.Hash
	// WitnessTxID hashes the raw bytes as given.
	WitnessTxID chainhash.Hash
}

// Record converts the transaction into its stored form.
func (t *Transaction) Record() model.Transaction {
	return model.Transaction{
		TxID:       t.TxID,
		Version:    t.Version,
		NumInputs:  uint32(len(t.Inputs)),
		NumOutputs: uint32(len(t.Outputs)),
		LockTime:   t.LockTime,
		HasWitness: t.HasWitness,
	}
}

type parseConfig struct {
	anyVersion bool
}

// ParseOption tweaks transaction parsing.
type ParseOption func(*parseConfig)

// WithAnyVersion accepts every transaction version instead of only 1 through 3.
func WithAnyVersion() ParseOption {
	return func(c *parseConfig) {
		c.anyVersion = true
	}
}

// ParseTransaction decodes a raw transaction in legacy or segwit format.
func ParseTransaction(raw []byte, opts ...ParseOption) (*Transaction, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := codec.NewCursor(raw)
	tx := &Transaction{}

	version, err := c.Uint32LE()
	if err != nil {
		return nil, parseErr(InvalidPrefix, 0, err)
	}
	tx.Version = int32(version)
	if !cfg.anyVersion && (tx.Version < minVersion || tx.Version > maxVersion) {
		return nil, parseErr(InvalidPrefix, 0, fmt.Errorf("unsupported version %d", tx.Version))
	}

	marker, err := c.PeekUint8(0)
	if err != nil {
		return nil, parseErr(InvalidPrefix, c.Offset(), err)
	}
	if marker == witnessMarker {
		flag, err := c.PeekUint8(1)
		if err != nil {
			return nil, parseErr(InvalidPrefix, c.Offset(), err)
		}
		if flag != witnessFlag {
			return nil, parseErr(InvalidPrefix, c.Offset(), fmt.Errorf("%w %#02x", errUnexpectedMarker, flag))
		}
		if err := c.Skip(2); err != nil {
			return nil, parseErr(InvalidPrefix, c.Offset(), err)
		}
		tx.HasWitness = true
	}

	bodyStart := c.Offset()
	if tx.Inputs, err = readInputs(c); err != nil {
		return nil, err
	}
	if tx.Outputs, err = readOutputs(c); err != nil {
		return nil, err
	}
	bodyEnd := c.Offset()

	if tx.HasWitness {
		if err := readWitnesses(c, tx.Inputs); err != nil {
			return nil, err
		}
	}

	lockTimeAt := c.Offset()
	if tx.LockTime, err = c.Uint32LE(); err != nil {
		return nil, parseErr(OutOfBounds, lockTimeAt, err)
	}
	if c.Remaining() != 0 {
		return nil, parseErr(TrailingBytes, c.Offset(), fmt.Errorf("%d bytes after locktime", c.Remaining()))
	}

	tx.WitnessTxID = digest.Hash256(raw)
	if !tx.HasWitness {
		tx.TxID = tx.WitnessTxID
		return tx, nil
	}

	stripped := make([]byte, 0, 4+(bodyEnd-bodyStart)+4)
	stripped = append(stripped, raw[:4]...)
	stripped = append(stripped, raw[bodyStart:bodyEnd]...)
	stripped = append(stripped, raw[lockTimeAt:]...)
	tx.TxID = digest.Hash256(stripped)
	return tx, nil
}

func readCount(c *codec.Cursor, minSize int) (int, error) {
	count, err := c.VarInt()
	if err != nil {
		return 0, err
	}
	if count > uint64(c.Remaining()/minSize) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d bytes", codec.ErrOutOfBounds, count, c.Remaining())
	}
	if _, err := safe.Uint32(count); err != nil {
		return 0, err
	}
	return int(count), nil
}

func readInputs(c *codec.Cursor) ([]Input, error) {
	start := c.Offset()
	count, err := readCount(c, minInputSize)
	if err != nil {
		return nil, parseErr(InvalidOutpoint, start, fmt.Errorf("read input count: %w", err))
	}
	if count == 0 {
		return nil, parseErr(InvalidOutpoint, start, errNoInputs)
	}

	inputs := make([]Input, count)
	for i := range inputs {
		at := c.Offset()
		if err := readInput(c, &inputs[i]); err != nil {
			return nil, parseErr(InvalidOutpoint, at, fmt.Errorf("read input %d: %w", i, err))
		}
	}
	return inputs, nil
}

func readInput(c *codec.Cursor, in *Input) error {
	var err error
	if in.PrevOut.Hash, err = c.Hash(); err != nil {
		return err
	}
	if in.PrevOut.Index, err = c.Uint32LE(); err != nil {
		return err
	}
	if in.Script, err = c.VarBytes(); err != nil {
		return err
	}
	in.Sequence, err = c.Uint32LE()
	return err
}

func readOutputs(c *codec.Cursor) ([]Output, error) {
	start := c.Offset()
	count, err := readCount(c, minOutputSize)
	if err != nil {
		return nil, parseErr(InvalidOutput, start, fmt.Errorf("read output count: %w", err))
	}
	if count == 0 {
		return nil, parseErr(InvalidOutput, start, errNoOutputs)
	}

	outputs := make([]Output, count)
	for i := range outputs {
		at := c.Offset()
		if outputs[i].Value, err = c.Uint64LE(); err != nil {
			return nil, parseErr(InvalidOutput, at, fmt.Errorf("read output %d value: %w", i, err))
		}
		if outputs[i].Script, err = c.VarBytes(); err != nil {
			return nil, parseErr(InvalidOutput, at, fmt.Errorf("read output %d script: %w", i, err))
		}
	}
	return outputs, nil
}

func readWitnesses(c *codec.Cursor, inputs []Input) error {
	start := c.Offset()
	empty := true
	for i := range inputs {
		at := c.Offset()
		count, err := readCount(c, minWitnessItem)
		if err != nil {
			return parseErr(InvalidWitness, at, fmt.Errorf("read witness %d count: %w", i, err))
		}
		stack := make([][]byte, count)
		for j := range stack {
			if stack[j], err = c.VarBytes(); err != nil {
				return parseErr(InvalidWitness, at, fmt.Errorf("read witness %d item %d: %w", i, j, err))
			}
		}
		if count > 0 {
			empty = false
		}
		inputs[i].Witness = stack
	}
	if empty {
		return parseErr(InvalidWitness, start, errEmptyWitness)
	}
	return nil
}
