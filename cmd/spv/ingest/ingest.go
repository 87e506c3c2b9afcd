package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/bitcoin"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
	"github.com/goodnatureofminers/spvstore-backend/pkg/workerpool"
)

// Large enough for a hex-encoded 4 MB transaction.
const maxLineBytes = 9 << 20

var errBadHex = errors.New("bad_hex")

type line struct {
	source string
	number int
	text   string
}

func (l line) String() string {
	return fmt.Sprintf("%s:%d", l.source, l.number)
}

type outcome struct {
	line      line
	hash      chainhash.Hash
	duplicate bool
	rejection error
}

type summary struct {
	Stored    int
	Duplicate int
	Rejected  int
}

type ingestFunc func(raw []byte) (service.Receipt, error)

// readLines returns the non-empty, non-comment lines of path.
func readLines(path string) ([]line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return scanLines(path, f)
}

func scanLines(source string, r io.Reader) ([]line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []line
	for n := 1; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, line{source: source, number: n, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return lines, nil
}

// ingestLines feeds every line to ingest concurrently and returns outcomes in
// input order. Rejections are outcomes; any other failure aborts the run.
func ingestLines(ctx context.Context, ingest ingestFunc, lines []line, workers int) ([]outcome, error) {
	return workerpool.Map(ctx, workers, lines, func(_ context.Context, l line) (outcome, error) {
		raw, err := hex.DecodeString(l.text)
		if err != nil {
			return outcome{line: l, rejection: fmt.Errorf("%w: %v", errBadHex, err)}, nil
		}

		receipt, err := ingest(raw)
		if service.IsRejected(err) {
			return outcome{line: l, rejection: err}, nil
		}
		if err != nil {
			return outcome{}, fmt.Errorf("%s: %w", l, err)
		}
		return outcome{line: l, hash: receipt.Hash, duplicate: receipt.Duplicate}, nil
	})
}

// report prints one tab-separated row per outcome.
func report(w io.Writer, outcomes []outcome) summary {
	var sum summary
	for _, o := range outcomes {
		switch {
		case o.rejection != nil:
			sum.Rejected++
			fmt.Fprintf(w, "%s\trejected\t%s\t%v\n", o.line, reasonOf(o.rejection), o.rejection)
		case o.duplicate:
			sum.Duplicate++
			fmt.Fprintf(w, "%s\tduplicate\t%s\n", o.line, o.hash)
		default:
			sum.Stored++
			fmt.Fprintf(w, "%s\tstored\t%s\n", o.line, o.hash)
		}
	}
	return sum
}

func reasonOf(err error) string {
	if kind, ok := bitcoin.KindOf(err); ok {
		return string(kind)
	}
	if errors.Is(err, bitcoin.ErrInsufficientWork) {
		return "insufficient_work"
	}
	return errBadHex.Error()
}
