package scheduler

import (
	"context"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
)

// StaleQuoteSweeper periodically enqueues a stale quote sweep task.
type StaleQuoteSweeper struct {
	client        *Client
	interval      time.Duration
	thresholdDays int
	log           *logger.Logger
}

func NewStaleQuoteSweeper(client *Client, cfg config.StalenessConfig, log *logger.Logger) *StaleQuoteSweeper {
	interval := cfg.GetStaleSweepInterval()
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &StaleQuoteSweeper{
		client:        client,
		interval:      interval,
		thresholdDays: cfg.GetStaleQuoteThresholdDays(),
		log:           log,
	}
}

func (s *StaleQuoteSweeper) Run(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.client.EnqueueStaleQuoteSweep(ctx, s.thresholdDays); err != nil {
			s.log.Warn("failed to enqueue stale quote sweep", "error", err)
			continue
		}
		s.log.Info("stale quote sweep enqueued", "thresholdDays", s.thresholdDays)
	}
}
