package printer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pos-service/internal/models"
	"pos-service/internal/receipt"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// ErrPrintUnavailable indicates the print surface could not be opened.
// Printing is operator supervised: the failure is reported and the operator
// retries by hand, the dispatcher never retries on its own.
var ErrPrintUnavailable = errors.New("print surface unavailable")

// Job is one open print surface. Markup is written to it, Trigger starts
// the hardware print, Release frees the surface. Release must be safe to
// call whether or not Trigger ran.
type Job interface {
	io.Writer
	Trigger(ctx context.Context) error
	Release() error
}

// Surface opens print jobs.
type Surface interface {
	Open(ctx context.Context) (Job, error)
}

// Dispatcher renders a transaction through the Receipt Formatter and pushes
// the markup to a print surface.
type Dispatcher struct {
	surface Surface
	store   receipt.StoreInfo
	logger  *zap.Logger
}

// NewDispatcher creates a print dispatcher for the given surface.
func NewDispatcher(surface Surface, store receipt.StoreInfo) *Dispatcher {
	return &Dispatcher{
		surface: surface,
		store:   store,
		logger:  util.GetLogger(),
	}
}

// Print formats the transaction and sends it to the surface. The surface is
// released on every path, including failures while building the document.
func (d *Dispatcher) Print(ctx context.Context, tx *models.Transaction) error {
	ctx, span := util.StartSpan(ctx, "Dispatcher.Print")
	defer span.End()

	doc := Document(tx.InvoiceNumber, receipt.Thermal(tx, d.store))

	job, err := d.surface.Open(ctx)
	if err != nil {
		util.PrintsFailedTotal.WithLabelValues("surface_open").Inc()
		return fmt.Errorf("%w: %v", ErrPrintUnavailable, err)
	}
	defer func() {
		if err := job.Release(); err != nil {
			d.logger.Warn("Failed to release print surface", zap.Error(err))
		}
	}()

	if _, err := io.WriteString(job, doc); err != nil {
		util.PrintsFailedTotal.WithLabelValues("write").Inc()
		return fmt.Errorf("failed to write receipt markup: %w", err)
	}

	if err := job.Trigger(ctx); err != nil {
		util.PrintsFailedTotal.WithLabelValues("trigger").Inc()
		return fmt.Errorf("failed to trigger print: %w", err)
	}

	util.PrintsDispatchedTotal.Inc()
	d.logger.Info("Receipt dispatched to printer",
		zap.String("invoice", tx.InvoiceNumber))
	return nil
}
