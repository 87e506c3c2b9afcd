package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

const insertEventsQuery = `
INSERT INTO spv_events (
	kind,
	digest,
	txid,
	duplicate,
	at
) VALUES`

// InsertEvents appends events to the log in one batch.
func (r *Repository) InsertEvents(ctx context.Context, events []model.Event) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_events", err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertEventsQuery)
	if err != nil {
		return fmt.Errorf("prepare events batch: %w", err)
	}

	for _, ev := range events {
		if err = batch.Append(
			string(ev.Kind),
			ev.Digest.String(),
			ev.TxID.String(),
			ev.Duplicate,
			ev.At.UTC(),
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append event: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}
