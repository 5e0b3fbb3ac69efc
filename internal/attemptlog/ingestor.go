package attemptlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/store"
	"github.com/beacon-gw/beacon/internal/store/model"
)

// Ingestor handles the asynchronous persistence of provider attempt records.
type Ingestor interface {
	Log(a *model.Attempt)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *model.Attempt
	batchSize int
	flushTime time.Duration
}

func NewIngestor(logger *zap.Logger, repo store.Repository) Ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		logChan:   make(chan *model.Attempt, 10000),
		batchSize: 50,
		flushTime: 5 * time.Second,
	}
}

// Log enqueues a record; a full buffer drops instead of blocking the
// request path.
func (i *ingestor) Log(a *model.Attempt) {
	select {
	case i.logChan <- a:
	default:
		i.logger.Warn("attempt log buffer full, dropping record", zap.String("request_id", a.RequestID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

func (i *ingestor) Stop() {
	close(i.logChan)
}

func (i *ingestor) worker(ctx context.Context) {
	batch := make([]*model.Attempt, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, a := range batch {
			if err := i.repo.Attempts().Log(context.Background(), a); err != nil {
				i.logger.Error("failed to persist attempt record", zap.String("id", a.ID), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case a, ok := <-i.logChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, a)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// Nop is used when attempt persistence is disabled.
type Nop struct{}

func (Nop) Log(*model.Attempt)        {}
func (Nop) Start(context.Context)     {}
func (Nop) Stop()                     {}
