// Package transport exposes gRPC/HTTP handlers.
package transport

import (
	"context"

	blockinsight7000v1 "github.com/goodnatureofminers/blockinsight7000-proto/pkg/blockinsight7000/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ExplorerHandler implements ExplorerServiceServer.
type ExplorerHandler struct {
	blockinsight7000v1.UnimplementedExplorerServiceServer

	store  HealthChecker
	logger *zap.Logger
}

// NewExplorerHandler returns an ExplorerHandler reporting the health of store.
func NewExplorerHandler(store HealthChecker, logger *zap.Logger) blockinsight7000v1.ExplorerServiceServer {
	return &ExplorerHandler{store: store, logger: logger.Named("explorer")}
}

// Health reports healthy while the record store answers; otherwise Unavailable.
func (h *ExplorerHandler) Health(_ context.Context, _ *blockinsight7000v1.HealthRequest) (*blockinsight7000v1.HealthResponse, error) {
	if err := h.store.Ping(); err != nil {
		h.logger.Warn("store health check failed", zap.Error(err))
		return nil, status.Error(codes.Unavailable, "store unavailable")
	}
	return &blockinsight7000v1.HealthResponse{
		Status:      blockinsight7000v1.HealthStatus_HEALTH_STATUS_HEALTHY,
		Description: "store reachable",
	}, nil
}
