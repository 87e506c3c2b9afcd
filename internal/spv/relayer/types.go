package relayer

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Source interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetBlock(blockHash *chainhash.Hash) (*wire.MsgBlock, error)
	}
	Engine interface {
		ParseAndStoreHeader(raw []byte) (chainhash.Hash, error)
		ParseAndStoreTransaction(raw []byte) (chainhash.Hash, error)
		Validate(txid, headerDigest chainhash.Hash, proof model.Proof) (bool, error)
	}
	Metrics interface {
		ObserveBlock(err error, height int64, validated int, started time.Time)
	}
)
