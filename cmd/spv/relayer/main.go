package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/metrics"
	"github.com/goodnatureofminers/spvstore-backend/internal/pkg/btcd/rpcclient"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/notify"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/relayer"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/wiring"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type config struct {
	Network      string        `long:"network" env:"SPV_RELAYER_NETWORK" description:"network name (mainnet, testnet, regtest, signet)" required:"true"`
	RPCURL       string        `long:"rpc-url" env:"SPV_RELAYER_RPC_URL" description:"Bitcoin RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser      string        `long:"rpc-user" env:"SPV_RELAYER_RPC_USER" description:"Bitcoin RPC username"`
	RPCPassword  string        `long:"rpc-password" env:"SPV_RELAYER_RPC_PASSWORD" description:"Bitcoin RPC password"`
	ZMQAddr      string        `long:"zmq-addr" env:"SPV_RELAYER_ZMQ_ADDR" description:"bitcoind zmqpubhashblock endpoint (zmq builds only)"`
	BoltPath     string        `long:"bolt-path" env:"SPV_RELAYER_BOLT_PATH" description:"bolt database file; in-memory store when empty"`
	StartHeight  int64         `long:"start-height" env:"SPV_RELAYER_START_HEIGHT" description:"first block height to relay" default:"0"`
	Watch        []string      `long:"watch" env:"SPV_RELAYER_WATCH" env-delim:"," description:"only relay these txids (repeatable)"`
	Workers      int           `long:"workers" env:"SPV_RELAYER_WORKERS" description:"concurrent transactions per block" default:"8"`
	PollInterval time.Duration `long:"poll-interval" env:"SPV_RELAYER_POLL_INTERVAL" description:"tip poll interval" default:"30s"`
	MetricsAddr  string        `long:"metrics-addr" env:"SPV_RELAYER_METRICS_ADDR" description:"prometheus listen address" default:":9100"`

	Policy   wiring.Policy   `group:"Policy" env-namespace:"SPV_RELAYER"`
	EventLog wiring.EventLog `group:"Event log" env-namespace:"SPV_RELAYER"`
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

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("spv relayer failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	network := model.Network(cfg.Network)

	watch, err := parseWatch(cfg.Watch)
	if err != nil {
		return err
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

	rpc, err := rpcclient.Dial(rpcclient.Config{URL: cfg.RPCURL, User: cfg.RPCUser, Password: cfg.RPCPassword})
	if err != nil {
		return fmt.Errorf("init btc rpc client: %w", err)
	}
	defer func() {
		rpc.Shutdown()
		rpc.WaitForShutdown()
	}()
	source := rpcclient.NewObservedClient(rpc, metrics.NewRPCClient(network))

	g, gctx := errgroup.WithContext(ctx)

	blockSignal, err := startBlockSignal(gctx, cfg.ZMQAddr, logger)
	if err != nil {
		return err
	}

	r, err := relayer.New(source, engine, metrics.NewRelayer(network), logger, relayer.Config{
		Network:      network,
		StartHeight:  cfg.StartHeight,
		Watch:        watch,
		Workers:      cfg.Workers,
		PollInterval: cfg.PollInterval,
	}, blockSignal)
	if err != nil {
		return fmt.Errorf("init relayer: %w", err)
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		return r.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func parseWatch(txids []string) ([]chainhash.Hash, error) {
	out := make([]chainhash.Hash, 0, len(txids))
	for _, s := range txids {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil || len(s) != chainhash.MaxHashStringSize {
			return nil, fmt.Errorf("invalid watch txid %q", s)
		}
		out = append(out, *h)
	}
	return out, nil
}
