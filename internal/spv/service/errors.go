package service

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/bitcoin"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/digest"
)

var (
	// ErrUnknownTransaction is returned when no transaction is stored under a txid.
	ErrUnknownTransaction = errors.New("unknown transaction")
	// ErrUnknownHeader is returned when no header is stored under a digest.
	ErrUnknownHeader = errors.New("unknown header")
)

// IsRejected reports whether err means the raw input itself was malformed
// or failed the configured header policy.
func IsRejected(err error) bool {
	if _, ok := bitcoin.KindOf(err); ok {
		return true
	}
	return errors.Is(err, bitcoin.ErrInsufficientWork)
}

// Sentinel collapses a result into the legacy form where the zero digest
// stands for any failure.
func Sentinel(h chainhash.Hash, err error) chainhash.Hash {
	if err != nil {
		return digest.Zero
	}
	return h
}
