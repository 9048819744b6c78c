package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 10m"

// Abandoner is satisfied by *game.Service.
type Abandoner interface {
	AbandonStale(ctx context.Context, waitingTTL, activeTTL time.Duration) (int64, error)
}

type Worker struct {
	sessions   Abandoner
	schedule   string
	waitingTTL time.Duration
	activeTTL  time.Duration
	logger     *zap.Logger
	cron       *cron.Cron

	cancel  context.CancelFunc
	startup chan struct{}
}

func NewWorker(sessions Abandoner, schedule string, waitingTTL, activeTTL time.Duration, logger *zap.Logger) *Worker {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		sessions:   sessions,
		schedule:   schedule,
		waitingTTL: waitingTTL,
		activeTTL:  activeTTL,
		logger:     logger.Named("cleanup"),
		cron:       cron.New(),
	}
}

// Start runs one pass immediately, then follows the cron schedule.
func (w *Worker) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid cleanup schedule %q: %w", w.schedule, err)
	}
	w.cancel = cancel
	w.startup = make(chan struct{})

	go func() {
		defer close(w.startup)
		w.RunOnce(ctx)
	}()
	w.cron.Start()
	w.logger.Info("background worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop waits for running passes, the startup one included, to finish or
// ctx to expire. Passes still running then are cancelled.
func (w *Worker) Stop(ctx context.Context) {
	if w.cancel == nil {
		return
	}
	defer w.cancel()

	for _, done := range []<-chan struct{}{w.cron.Stop().Done(), w.startup} {
		select {
		case <-done:
		case <-ctx.Done():
			w.logger.Warn("cleanup still running at shutdown")
			return
		}
	}
}

// RunOnce abandons stale sessions and returns how many it closed.
func (w *Worker) RunOnce(ctx context.Context) int64 {
	count, err := w.sessions.AbandonStale(ctx, w.waitingTTL, w.activeTTL)
	if err != nil {
		w.logger.Error("failed to abandon stale sessions", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.logger.Info("abandoned stale sessions", zap.Int64("count", count))
	}
	return count
}
