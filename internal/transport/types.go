package transport

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Engine interface {
		IngestHeader(raw []byte) (service.Receipt, error)
		IngestTransaction(raw []byte) (service.Receipt, error)
		Validate(txid, headerDigest chainhash.Hash, proof model.Proof) (bool, error)
		Header(digest chainhash.Hash) (model.Header, error)
		Transaction(txid chainhash.Hash) (model.Transaction, error)
	}
	History interface {
		ValidationsByTxID(ctx context.Context, txid chainhash.Hash, limit uint64) ([]model.Event, error)
	}
	HealthChecker interface {
		Ping() error
	}
)
