package clickhouse

import (
	"errors"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// fakeBatch records appended rows. Methods not overridden panic through the
// nil embedded interface.
type fakeBatch struct {
	driver.Batch
	rows      [][]any
	appendErr error
	sendErr   error
	sent      bool
	aborted   bool
}

func (b *fakeBatch) Append(v ...any) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.rows = append(b.rows, v)
	return nil
}

func (b *fakeBatch) Send() error {
	b.sent = true
	return b.sendErr
}

func (b *fakeBatch) Abort() error {
	b.aborted = true
	return nil
}

type eventRow struct {
	kind, digest, txid string
	duplicate          bool
	at                 time.Time
}

// fakeRows serves eventRow values to Scan.
type fakeRows struct {
	driver.Rows
	data    []eventRow
	pos     int
	scanErr error
	err     error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if len(dest) != 5 {
		return errors.New("unexpected column count")
	}
	row := r.data[r.pos-1]
	*dest[0].(*string) = row.kind
	*dest[1].(*string) = row.digest
	*dest[2].(*string) = row.txid
	*dest[3].(*bool) = row.duplicate
	*dest[4].(*time.Time) = row.at
	return nil
}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}
