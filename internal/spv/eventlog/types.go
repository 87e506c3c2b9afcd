package eventlog

import (
	"context"

	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/notify"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Repository interface {
		InsertEvents(ctx context.Context, events []model.Event) error
	}
	Metrics interface {
		ObserveFlush(n int, err error)
		ObserveDropped(n int)
	}
	Source interface {
		Subscribe(fn notify.Handler) (unsubscribe func())
	}
)
