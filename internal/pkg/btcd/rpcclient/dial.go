package rpcclient

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/btcsuite/btcd/rpcclient"
)

// Config describes a bitcoind JSON-RPC endpoint.
type Config struct {
	URL      string
	User     string
	Password string
}

// ConnConfig validates cfg and converts it to an HTTP POST mode connection config.
func ConnConfig(cfg Config) (*rpcclient.ConnConfig, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         cfg.User,
		Pass:         cfg.Password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil
}

// Dial creates a client for cfg. Callers must Shutdown it.
func Dial(cfg Config) (*rpcclient.Client, error) {
	conn, err := ConnConfig(cfg)
	if err != nil {
		return nil, err
	}
	return rpcclient.New(conn, nil)
}
