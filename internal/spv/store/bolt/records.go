package bolt

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/lightningnetwork/lnd/tlv"
)

const (
	headerDigestType     tlv.Type = 0
	headerVersionType    tlv.Type = 1
	headerPrevBlockType  tlv.Type = 2
	headerMerkleRootType tlv.Type = 3
	headerTimestampType  tlv.Type = 4
	headerBitsType       tlv.Type = 5
	headerTargetType     tlv.Type = 6
	headerNonceType      tlv.Type = 7

	txIDType         tlv.Type = 0
	txVersionType    tlv.Type = 1
	txNumInputsType  tlv.Type = 2
	txNumOutputsType tlv.Type = 3
	txLockTimeType   tlv.Type = 4
	txFlagsType      tlv.Type = 5
)

const (
	flagWitness uint8 = 1 << iota
	flagValidated
)

type headerRecord struct {
	digest     [32]byte
	version    uint32
	prevBlock  [32]byte
	merkleRoot [32]byte
	timestamp  uint32
	bits       uint32
	target     [32]byte
	nonce      uint32
}

func (r *headerRecord) records() []tlv.Record {
	return []tlv.Record{
		tlv.MakePrimitiveRecord(headerDigestType, &r.digest),
		tlv.MakePrimitiveRecord(headerVersionType, &r.version),
		tlv.MakePrimitiveRecord(headerPrevBlockType, &r.prevBlock),
		tlv.MakePrimitiveRecord(headerMerkleRootType, &r.merkleRoot),
		tlv.MakePrimitiveRecord(headerTimestampType, &r.timestamp),
		tlv.MakePrimitiveRecord(headerBitsType, &r.bits),
		tlv.MakePrimitiveRecord(headerTargetType, &r.target),
		tlv.MakePrimitiveRecord(headerNonceType, &r.nonce),
	}
}

func encodeHeader(h model.Header) ([]byte, error) {
	r := headerRecord{
		digest:     h.Digest,
		version:    uint32(h.Version),
		prevBlock:  h.PrevBlock,
		merkleRoot: h.MerkleRoot,
		timestamp:  h.Timestamp,
		bits:       h.Bits,
		target:     h.Target,
		nonce:      h.Nonce,
	}
	return encodeStream(r.records())
}

func decodeHeader(b []byte) (model.Header, error) {
	var r headerRecord
	if err := decodeStream(b, r.records()); err != nil {
		return model.Header{}, fmt.Errorf("decode header: %w", err)
	}
	return model.Header{
		Digest:     chainhash.Hash(r.digest),
		Version:    int32(r.version),
		PrevBlock:  chainhash.Hash(r.prevBlock),
		MerkleRoot: chainhash.Hash(r.merkleRoot),
		Timestamp:  r.timestamp,
		Bits:       r.bits,
		Target:     model.Target(r.target),
		Nonce:      r.nonce,
	}, nil
}

type transactionRecord struct {
	txid       [32]byte
	version    uint32
	numInputs  uint32
	numOutputs uint32
	lockTime   uint32
	flags      uint8
}

func (r *transactionRecord) records() []tlv.Record {
	return []tlv.Record{
		tlv.MakePrimitiveRecord(txIDType, &r.txid),
		tlv.MakePrimitiveRecord(txVersionType, &r.version),
		tlv.MakePrimitiveRecord(txNumInputsType, &r.numInputs),
		tlv.MakePrimitiveRecord(txNumOutputsType, &r.numOutputs),
		tlv.MakePrimitiveRecord(txLockTimeType, &r.lockTime),
		tlv.MakePrimitiveRecord(txFlagsType, &r.flags),
	}
}

func encodeTransaction(tx model.Transaction) ([]byte, error) {
	r := transactionRecord{
		txid:       tx.TxID,
		version:    uint32(tx.Version),
		numInputs:  tx.NumInputs,
		numOutputs: tx.NumOutputs,
		lockTime:   tx.LockTime,
	}
	if tx.HasWitness {
		r.flags |= flagWitness
	}
	if tx.ValidationComplete {
		r.flags |= flagValidated
	}
	return encodeStream(r.records())
}

func decodeTransaction(b []byte) (model.Transaction, error) {
	var r transactionRecord
	if err := decodeStream(b, r.records()); err != nil {
		return model.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return model.Transaction{
		TxID:               chainhash.Hash(r.txid),
		Version:            int32(r.version),
		NumInputs:          r.numInputs,
		NumOutputs:         r.numOutputs,
		LockTime:           r.lockTime,
		HasWitness:         r.flags&flagWitness != 0,
		ValidationComplete: r.flags&flagValidated != 0,
	}, nil
}

func encodeStream(records []tlv.Record) ([]byte, error) {
	stream, err := tlv.NewStream(records...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := stream.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeStream(b []byte, records []tlv.Record) error {
	stream, err := tlv.NewStream(records...)
	if err != nil {
		return err
	}
	return stream.Decode(bytes.NewReader(b))
}
