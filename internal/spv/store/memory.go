package store

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

// Memory is an in-process Store.
type Memory struct {
	headers      *Map[chainhash.Hash, model.Header]
	transactions *Map[chainhash.Hash, model.Transaction]
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		headers:      NewMap[chainhash.Hash, model.Header](),
		transactions: NewMap[chainhash.Hash, model.Transaction](),
	}
}

func (m *Memory) PutHeader(h model.Header) (model.Header, bool, error) {
	stored, created := m.headers.PutIfAbsent(h.Digest, h)
	return stored, created, nil
}

func (m *Memory) Header(digest chainhash.Hash) (model.Header, error) {
	h, ok := m.headers.Get(digest)
	if !ok {
		return model.Header{}, fmt.Errorf("header %s: %w", digest, ErrNotFound)
	}
	return h, nil
}

func (m *Memory) PutTransaction(tx model.Transaction) (model.Transaction, bool, error) {
	tx.ValidationComplete = false
	stored, created := m.transactions.PutIfAbsent(tx.TxID, tx)
	return stored, created, nil
}

func (m *Memory) Transaction(txid chainhash.Hash) (model.Transaction, error) {
	tx, ok := m.transactions.Get(txid)
	if !ok {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", txid, ErrNotFound)
	}
	return tx, nil
}

func (m *Memory) MarkValidated(txid chainhash.Hash) (model.Transaction, bool, error) {
	tx, changed, ok := m.transactions.Update(txid, func(tx model.Transaction) (model.Transaction, bool) {
		if tx.ValidationComplete {
			return tx, false
		}
		tx.ValidationComplete = true
		return tx, true
	})
	if !ok {
		return model.Transaction{}, false, fmt.Errorf("transaction %s: %w", txid, ErrNotFound)
	}
	return tx, changed, nil
}

// Ping always succeeds.
func (m *Memory) Ping() error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
