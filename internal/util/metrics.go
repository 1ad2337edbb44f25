package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_succeeded_total",
		Help: "Total number of checkouts confirmed by the transaction service",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutSubmitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_submit_latency_seconds",
		Help:    "Latency of transaction service submission",
		Buckets: prometheus.DefBuckets,
	})

	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of cart add operations",
	})

	CartStockClampsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_stock_clamps_total",
		Help: "Total number of quantity requests clamped to available stock",
	})

	ReceiptsRenderedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receipts_rendered_total",
		Help: "Total number of receipts rendered",
	}, []string{"layout"})

	PrintsDispatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prints_dispatched_total",
		Help: "Total number of print jobs dispatched",
	})

	PrintsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prints_failed_total",
		Help: "Total number of failed print jobs",
	}, []string{"reason"})

	SummaryRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "summary_refresh_total",
		Help: "Total number of today-summary cache refreshes",
	}, []string{"source"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
