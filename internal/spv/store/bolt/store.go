// Package bolt persists SPV records in a bbolt file.
package bolt

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/store"
	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketHeaders      = []byte("headers")
	bucketTransactions = []byte("transactions")
)

var errMissingBucket = errors.New("missing bucket")

// Store implements store.Store on top of bbolt. bbolt allows a single
// writer, so each check-then-insert runs atomically inside one Update.
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt path required")
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketTransactions} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("bolt store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) PutHeader(h model.Header) (model.Header, bool, error) {
	var (
		stored  = h
		created bool
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHeaders)
		if v := b.Get(h.Digest[:]); v != nil {
			existing, err := decodeHeader(v)
			if err != nil {
				return err
			}
			stored = existing
			return nil
		}

		encoded, err := encodeHeader(h)
		if err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
		created = true
		return b.Put(h.Digest[:], encoded)
	})
	if err != nil {
		return model.Header{}, false, fmt.Errorf("put header %s: %w", h.Digest, err)
	}
	return stored, created, nil
}

func (s *Store) Header(digest chainhash.Hash) (model.Header, error) {
	var (
		h     model.Header
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketHeaders).Get(digest[:])
		if v == nil {
			return nil
		}
		var err error
		h, err = decodeHeader(v)
		found = err == nil
		return err
	})
	if err != nil {
		return model.Header{}, fmt.Errorf("get header %s: %w", digest, err)
	}
	if !found {
		return model.Header{}, fmt.Errorf("header %s: %w", digest, store.ErrNotFound)
	}
	return h, nil
}

func (s *Store) PutTransaction(t model.Transaction) (model.Transaction, bool, error) {
	t.ValidationComplete = false
	var (
		stored  = t
		created bool
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		if v := b.Get(t.TxID[:]); v != nil {
			existing, err := decodeTransaction(v)
			if err != nil {
				return err
			}
			stored = existing
			return nil
		}

		encoded, err := encodeTransaction(t)
		if err != nil {
			return fmt.Errorf("encode transaction: %w", err)
		}
		created = true
		return b.Put(t.TxID[:], encoded)
	})
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("put transaction %s: %w", t.TxID, err)
	}
	return stored, created, nil
}

func (s *Store) Transaction(txid chainhash.Hash) (model.Transaction, error) {
	var (
		t     model.Transaction
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketTransactions).Get(txid[:])
		if v == nil {
			return nil
		}
		var err error
		t, err = decodeTransaction(v)
		found = err == nil
		return err
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("get transaction %s: %w", txid, err)
	}
	if !found {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", txid, store.ErrNotFound)
	}
	return t, nil
}

func (s *Store) MarkValidated(txid chainhash.Hash) (model.Transaction, bool, error) {
	var (
		t       model.Transaction
		changed bool
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		v := b.Get(txid[:])
		if v == nil {
			return store.ErrNotFound
		}
		var err error
		if t, err = decodeTransaction(v); err != nil {
			return err
		}
		if t.ValidationComplete {
			return nil
		}

		t.ValidationComplete = true
		encoded, err := encodeTransaction(t)
		if err != nil {
			return fmt.Errorf("encode transaction: %w", err)
		}
		changed = true
		return b.Put(txid[:], encoded)
	})
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("mark transaction %s validated: %w", txid, err)
	}
	return t, changed, nil
}

// Ping checks that both buckets are readable.
func (s *Store) Ping() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketTransactions} {
			if tx.Bucket(b) == nil {
				return fmt.Errorf("%w %s", errMissingBucket, b)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
