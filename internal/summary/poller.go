package summary

import (
	"context"
	"time"

	"pos-service/internal/redisclient"
	"pos-service/internal/txservice"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// Poller periodically replaces the cached today-summary with the
// authoritative one from the Transaction Service. Event-driven increments
// keep the cache fresh between polls; the poll corrects any drift. This is
// dashboard refresh plumbing, deliberately outside the checkout path.
type Poller struct {
	service  txservice.Service
	cache    *redisclient.Client
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller creates a summary poller.
func NewPoller(service txservice.Service, cache *redisclient.Client, interval time.Duration) *Poller {
	return &Poller{
		service:  service,
		cache:    cache,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Run polls until the context is cancelled. An immediate first refresh seeds
// the cache at startup.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Summary poller stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s, err := p.service.TodaySummary(reqCtx)
	if err != nil {
		p.logger.Warn("Summary refresh failed", zap.Error(err))
		return
	}

	if err := p.cache.SetTodaySummary(reqCtx, time.Now(), s); err != nil {
		p.logger.Warn("Summary cache write failed", zap.Error(err))
		return
	}
	util.SummaryRefreshTotal.WithLabelValues("poll").Inc()
}
