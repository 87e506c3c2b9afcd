//go:build !zmq

package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

func startBlockSignal(_ context.Context, addr string, logger *zap.Logger) (<-chan struct{}, error) {
	if addr == "" {
		return nil, nil
	}
	logger.Error("zmq address set but binary built without the zmq tag", zap.String("addr", addr))
	return nil, errors.New("zmq block signal requires a build with -tags zmq")
}
