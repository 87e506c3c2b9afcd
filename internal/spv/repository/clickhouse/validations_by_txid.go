package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

const validationsByTxIDQuery = `
SELECT kind, digest, txid, duplicate, at
FROM spv_events
WHERE kind = ? AND txid = ?
ORDER BY at
LIMIT ?`

// ValidationsByTxID returns the validated events recorded for txid, oldest first.
func (r *Repository) ValidationsByTxID(ctx context.Context, txid chainhash.Hash, limit uint64) (events []model.Event, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("validations_by_txid", err, start)
	}()

	rows, err := r.conn.Query(ctx, validationsByTxIDQuery, string(model.Validated), txid.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("query validations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var (
			kind, digestHex, txidHex string
			ev                       model.Event
		)
		if err = rows.Scan(&kind, &digestHex, &txidHex, &ev.Duplicate, &ev.At); err != nil {
			return nil, fmt.Errorf("scan validation: %w", err)
		}
		ev.Kind = model.EventKind(kind)
		if err = parseHash(digestHex, &ev.Digest); err != nil {
			return nil, err
		}
		if err = parseHash(txidHex, &ev.TxID); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validations: %w", err)
	}
	return events, nil
}

func parseHash(s string, dst *chainhash.Hash) error {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return fmt.Errorf("parse hash %q: %w", s, err)
	}
	*dst = *h
	return nil
}
