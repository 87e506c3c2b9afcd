package relayer

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/merkle"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
	"github.com/goodnatureofminers/spvstore-backend/pkg/safe"
	"github.com/goodnatureofminers/spvstore-backend/pkg/workerpool"
	"go.uber.org/zap"
)

// RelayBlock stores the block at height and proves its selected transactions.
func (r *Relayer) RelayBlock(ctx context.Context, height int64) (res Result, err error) {
	started := time.Now()
	res.Height = height
	defer func() {
		r.metrics.ObserveBlock(err, height, res.Validated, started)
	}()

	hash, err := r.source.GetBlockHash(height)
	if err != nil {
		return res, fmt.Errorf("get block hash %d: %w", height, err)
	}
	msg, err := r.source.GetBlock(hash)
	if err != nil {
		return res, fmt.Errorf("get block %s: %w", hash, err)
	}

	var raw bytes.Buffer
	if err = msg.Header.Serialize(&raw); err != nil {
		return res, fmt.Errorf("serialize header %s: %w", hash, err)
	}
	digest, err := r.engine.ParseAndStoreHeader(raw.Bytes())
	if err != nil {
		return res, fmt.Errorf("store header %s: %w", hash, err)
	}
	if digest != *hash {
		err = fmt.Errorf("%w: node header %s, stored %s", ErrDigestMismatch, hash, digest)
		return res, err
	}
	res.Digest = digest

	txs := btcutil.NewBlock(msg).Transactions()
	selected := r.selectTransactions(txs)
	if len(selected) == 0 {
		return res, nil
	}

	stored, err := workerpool.Map(ctx, r.workers, selected, func(_ context.Context, i int) (bool, error) {
		return r.storeTransaction(txs[i])
	})
	if err != nil {
		return res, err
	}

	proven := make([]int, 0, len(selected))
	for k, i := range selected {
		if stored[k] {
			proven = append(proven, i)
		}
	}
	res.Stored = len(proven)
	res.Skipped = len(selected) - len(proven)

	tree := blockchain.BuildMerkleTreeStore(txs, false)
	var validated atomic.Int64
	err = workerpool.Process(ctx, r.workers, proven, func(_ context.Context, i int) error {
		if err := r.prove(tree, txs[i], i, digest); err != nil {
			return err
		}
		validated.Add(1)
		return nil
	}, nil)
	res.Validated = int(validated.Load())
	return res, err
}

func (r *Relayer) selectTransactions(txs []*btcutil.Tx) []int {
	selected := make([]int, 0, len(txs))
	for i, tx := range txs {
		if r.watch != nil {
			if _, ok := r.watch[*tx.Hash()]; !ok {
				continue
			}
		}
		selected = append(selected, i)
	}
	return selected
}

// storeTransaction reports false when the engine rejects the transaction.
func (r *Relayer) storeTransaction(tx *btcutil.Tx) (bool, error) {
	var raw bytes.Buffer
	if err := tx.MsgTx().Serialize(&raw); err != nil {
		return false, fmt.Errorf("serialize tx %s: %w", tx.Hash(), err)
	}

	txid, err := r.engine.ParseAndStoreTransaction(raw.Bytes())
	if service.IsRejected(err) {
		r.logger.Warn("transaction rejected; skipping proof", zap.Stringer("txid", tx.Hash()), zap.Error(err))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store tx %s: %w", tx.Hash(), err)
	}
	if txid != *tx.Hash() {
		return false, fmt.Errorf("%w: node tx %s, stored %s", ErrDigestMismatch, tx.Hash(), txid)
	}
	return true, nil
}

func (r *Relayer) prove(tree []*chainhash.Hash, tx *btcutil.Tx, pos int, digest chainhash.Hash) error {
	index, err := safe.Uint64(pos)
	if err != nil {
		return err
	}
	branch, err := merkle.BranchFromTreeStore(tree, index)
	if err != nil {
		return fmt.Errorf("build branch for %s: %w", tx.Hash(), err)
	}

	ok, err := r.engine.Validate(*tx.Hash(), digest, model.Proof{Siblings: branch, Index: index})
	if err != nil {
		return fmt.Errorf("validate %s: %w", tx.Hash(), err)
	}
	if !ok {
		return fmt.Errorf("%w: tx %s in block %s", ErrProofRejected, tx.Hash(), digest)
	}
	return nil
}
