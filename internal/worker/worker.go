package worker

import (
	"context"
	"log"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/util"
)

// SummaryWorker keeps the today-summary cache current by consuming
// SaleCompleted events and incrementing the day's counters.
type SummaryWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        *redisclient.Client
}

// NewSummaryWorker creates a new summary worker
func NewSummaryWorker(consumer *broker.Consumer, cache *redisclient.Client) *SummaryWorker {
	w := &SummaryWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		cache:        cache,
	}
	w.eventHandler.OnSaleCompleted(w.handleSaleCompleted)
	return w
}

func (w *SummaryWorker) handleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	if err := w.cache.ApplySale(ctx, event.Timestamp, event); err != nil {
		return err
	}
	util.SummaryRefreshTotal.WithLabelValues("event").Inc()
	return nil
}

// Start starts the worker
func (w *SummaryWorker) Start(ctx context.Context) error {
	log.Println("Starting summary worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SummaryWorker) Stop() error {
	log.Println("Stopping summary worker...")
	return w.consumer.Close()
}
