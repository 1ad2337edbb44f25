package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/txservice"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart blocks checkout of a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInsufficientPayment blocks a cash payment below the cart total.
	// Detected locally; the request never reaches the transaction service.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrCheckoutInFlight rejects a second submit while one is pending for
	// the same session.
	ErrCheckoutInFlight = errors.New("checkout already in flight")

	// ErrSubmissionFailed wraps a rejection from the transaction service.
	// The service's reason is carried verbatim; the cart stays intact.
	ErrSubmissionFailed = errors.New("transaction submission failed")
)

// PaymentAttempt is the operator's payment input for one checkout call.
type PaymentAttempt struct {
	Method string `json:"payment_method"`
	Amount int64  `json:"payment_amount"`
	Notes  string `json:"notes,omitempty"`
}

// CacheInvalidator drops read caches that went stale when a sale committed.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// EventPublisher announces completed sales.
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error
}

// Orchestrator turns a cart plus a payment attempt into a transaction via
// the Transaction Service, and reacts to the outcome: success clears the
// cart and invalidates caches, failure leaves the cart untouched for retry.
type Orchestrator struct {
	service txservice.Service
	caches  CacheInvalidator
	events  EventPublisher
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewOrchestrator creates a checkout orchestrator. caches and events may be
// nil when a deployment runs without redis or kafka.
func NewOrchestrator(service txservice.Service, caches CacheInvalidator, events EventPublisher) *Orchestrator {
	return &Orchestrator{
		service:  service,
		caches:   caches,
		events:   events,
		logger:   util.GetLogger(),
		inFlight: make(map[string]struct{}),
	}
}

// ValidatePayment checks a payment attempt against the cart total and
// returns the change due. Cash below total fails; transfer amounts are the
// transaction service's business, not validated here.
func ValidatePayment(totalAmount int64, attempt PaymentAttempt) (int64, error) {
	if attempt.Method != models.PaymentMethodCash && attempt.Method != models.PaymentMethodTransfer {
		return 0, fmt.Errorf("unknown payment method %q", attempt.Method)
	}
	if attempt.Method == models.PaymentMethodCash && attempt.Amount < totalAmount {
		return 0, fmt.Errorf("%w: received %d, total %d", ErrInsufficientPayment, attempt.Amount, totalAmount)
	}

	change := attempt.Amount - totalAmount
	if change < 0 {
		change = 0
	}
	return change, nil
}

// BuildRequest maps cart lines to a transaction-creation request. Prices come
// from the add-time snapshots; a catalog price change mid-sale never alters
// an open cart's pricing.
func BuildRequest(lines []cart.Line, attempt PaymentAttempt, cashierID int64) *models.CreateTransactionRequest {
	items := make([]models.TransactionItemInput, len(lines))
	for i, l := range lines {
		items[i] = models.TransactionItemInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		}
	}
	return &models.CreateTransactionRequest{
		PaymentMethod: attempt.Method,
		PaymentAmount: attempt.Amount,
		Notes:         attempt.Notes,
		CashierID:     cashierID,
		Items:         items,
	}
}

// Checkout validates the attempt, submits it, and on confirmation clears the
// session's cart. A second call for the same session while one is pending is
// rejected rather than queued.
func (o *Orchestrator) Checkout(ctx context.Context, session *cart.Session, attempt PaymentAttempt) (*models.Transaction, error) {
	if !o.begin(session.ID) {
		return nil, ErrCheckoutInFlight
	}
	defer o.end(session.ID)

	ctx, span := util.StartSpan(ctx, "Orchestrator.Checkout")
	defer span.End()

	var tx *models.Transaction
	err := session.WithCart(func(c *cart.Cart) error {
		if c.Len() == 0 {
			return ErrEmptyCart
		}

		if _, err := ValidatePayment(c.TotalAmount(), attempt); err != nil {
			util.CheckoutsFailedTotal.WithLabelValues("invalid_payment").Inc()
			return err
		}

		req := BuildRequest(c.Lines(), attempt, session.Cashier.ID)

		start := time.Now()
		created, err := o.service.CreateTransaction(ctx, req)
		util.CheckoutSubmitLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			util.CheckoutsFailedTotal.WithLabelValues("service_rejected").Inc()
			return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}

		// Only a confirmed success may clear the cart.
		c.Clear()
		tx = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.CheckoutsSucceededTotal.Inc()
	o.logger.Info("Checkout succeeded",
		zap.String("session_id", session.ID),
		zap.String("invoice", tx.InvoiceNumber),
		zap.Int64("total", tx.TotalAmount),
		zap.Int64("change", tx.ChangeAmount))

	o.afterSuccess(ctx, tx)
	return tx, nil
}

// afterSuccess performs the best-effort reactions to a committed sale. None
// of them can fail the checkout: the transaction already exists.
func (o *Orchestrator) afterSuccess(ctx context.Context, tx *models.Transaction) {
	if o.caches != nil {
		if err := o.caches.Invalidate(ctx); err != nil {
			o.logger.Warn("Cache invalidation failed", zap.Error(err))
		}
	}

	if o.events != nil {
		itemCount := 0
		for i := range tx.Items {
			itemCount += tx.Items[i].Quantity
		}

		event := &models.SaleCompletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeSaleCompleted,
				Timestamp: time.Now(),
			},
			TransactionID: tx.ID,
			InvoiceNumber: tx.InvoiceNumber,
			TotalAmount:   tx.TotalAmount,
			PaymentMethod: tx.PaymentMethod,
			ItemCount:     itemCount,
		}
		if tx.Cashier != nil {
			event.CashierID = tx.Cashier.ID
		}

		if err := o.events.PublishSaleCompleted(ctx, event); err != nil {
			o.logger.Error("Failed to publish SaleCompleted event", zap.Error(err))
		}
	}
}

func (o *Orchestrator) begin(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[sessionID]; busy {
		return false
	}
	o.inFlight[sessionID] = struct{}{}
	return true
}

func (o *Orchestrator) end(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, sessionID)
}
