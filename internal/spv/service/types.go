package service

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Store interface {
		PutHeader(h model.Header) (model.Header, bool, error)
		Header(digest chainhash.Hash) (model.Header, error)
		PutTransaction(tx model.Transaction) (model.Transaction, bool, error)
		Transaction(txid chainhash.Hash) (model.Transaction, error)
		MarkValidated(txid chainhash.Hash) (model.Transaction, bool, error)
	}
	Notifier interface {
		Notify(ev model.Event)
	}
	Metrics interface {
		Observe(operation, outcome string, started time.Time)
	}
)
