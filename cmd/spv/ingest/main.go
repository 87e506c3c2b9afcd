package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodnatureofminers/spvstore-backend/internal/metrics"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/notify"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/wiring"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

const (
	kindHeaders      = "headers"
	kindTransactions = "transactions"
)

type config struct {
	BoltPath string `long:"bolt-path" env:"SPV_INGEST_BOLT_PATH" description:"bolt database file" required:"true"`
	Kind     string `long:"kind" env:"SPV_INGEST_KIND" description:"record kind in the input files" choice:"headers" choice:"transactions" default:"transactions"`
	Workers  int    `long:"workers" env:"SPV_INGEST_WORKERS" description:"concurrent ingestions" default:"8"`

	Policy   wiring.Policy   `group:"Policy" env-namespace:"SPV_INGEST"`
	EventLog wiring.EventLog `group:"Event log" env-namespace:"SPV_INGEST"`

	Args struct {
		Files []string `positional-arg-name:"FILE" description:"files with one hex record per line" required:"1"`
	} `positional-args:"yes"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("spv ingest failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	var lines []line
	for _, path := range cfg.Args.Files {
		fileLines, err := readLines(path)
		if err != nil {
			return err
		}
		lines = append(lines, fileLines...)
	}

	records, err := wiring.OpenStore(cfg.BoltPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := records.Close(); err != nil {
			logger.Error("close store", zap.Error(err))
		}
	}()

	dispatcher := notify.NewDispatcher()
	_, stopEventLog, err := wiring.StartEventLog(ctx, cfg.EventLog, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("start event log: %w", err)
	}
	defer stopEventLog()

	engine := service.NewEngine(records, dispatcher, metrics.NewEngine(), logger.Named("engine"), cfg.Policy.Options()...)
	ingest := engine.IngestTransaction
	if cfg.Kind == kindHeaders {
		ingest = engine.IngestHeader
	}

	outcomes, err := ingestLines(ctx, ingest, lines, cfg.Workers)
	if err != nil {
		return err
	}
	sum := report(os.Stdout, outcomes)
	logger.Info("ingest finished",
		zap.String("kind", cfg.Kind),
		zap.Int("stored", sum.Stored),
		zap.Int("duplicate", sum.Duplicate),
		zap.Int("rejected", sum.Rejected),
	)
	return nil
}
