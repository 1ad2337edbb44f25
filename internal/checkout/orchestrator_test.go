package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxService struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	lastReq *models.CreateTransactionRequest
	calls   int
}

func (f *fakeTxService) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}

	var total int64
	items := make([]models.TransactionItem, len(req.Items))
	for i, in := range req.Items {
		sub := in.Price * int64(in.Quantity)
		total += sub
		items[i] = models.TransactionItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     in.Price,
			Subtotal:  sub,
		}
	}
	change := req.PaymentAmount - total
	if change < 0 {
		change = 0
	}
	return &models.Transaction{
		ID:            42,
		InvoiceNumber: "INV-20240115-0001",
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		PaymentAmount: req.PaymentAmount,
		ChangeAmount:  change,
		Items:         items,
		CreatedAt:     time.Now(),
	}, nil
}

func (f *fakeTxService) GetTransactionByInvoice(context.Context, string) (*models.Transaction, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTxService) TodaySummary(context.Context) (*models.TodaySummary, error) {
	return nil, errors.New("not implemented")
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.SaleCompletedEvent
}

func (f *fakePublisher) PublishSaleCompleted(_ context.Context, e *models.SaleCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func sessionWithCart(t *testing.T) (*cart.Registry, *cart.Session) {
	t.Helper()
	r := cart.NewRegistry()
	s := r.Open(models.Cashier{ID: 7, Name: "Siti"})
	err := s.WithCart(func(c *cart.Cart) error {
		if err := c.AddItem(models.Product{ID: 1, Name: "Product A", Price: 5000, Stock: 10}, 2); err != nil {
			return err
		}
		return c.AddItem(models.Product{ID: 2, Name: "Product B", Price: 3000, Stock: 10}, 1)
	})
	require.NoError(t, err)
	return r, s
}

func TestValidatePayment(t *testing.T) {
	change, err := ValidatePayment(15000, PaymentAttempt{Method: models.PaymentMethodCash, Amount: 20000})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), change)

	_, err = ValidatePayment(15000, PaymentAttempt{Method: models.PaymentMethodCash, Amount: 10000})
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	// transfer below total is the transaction service's call, not ours
	change, err = ValidatePayment(15000, PaymentAttempt{Method: models.PaymentMethodTransfer, Amount: 15000})
	require.NoError(t, err)
	assert.Equal(t, int64(0), change)

	_, err = ValidatePayment(15000, PaymentAttempt{Method: "voucher", Amount: 15000})
	assert.Error(t, err)
}

func TestBuildRequestUsesSnapshotPrices(t *testing.T) {
	_, s := sessionWithCart(t)

	var req *models.CreateTransactionRequest
	err := s.WithCart(func(c *cart.Cart) error {
		req = BuildRequest(c.Lines(), PaymentAttempt{Method: models.PaymentMethodCash, Amount: 15000}, 7)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, req.Items, 2)
	assert.Equal(t, int64(1), req.Items[0].ProductID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.Equal(t, int64(5000), req.Items[0].Price)
	assert.Equal(t, int64(3000), req.Items[1].Price)
	assert.Equal(t, int64(7), req.CashierID)
}

func TestCheckoutSuccessClearsCartAndReacts(t *testing.T) {
	_, s := sessionWithCart(t)
	svc := &fakeTxService{}
	caches := &fakeInvalidator{}
	events := &fakePublisher{}
	o := NewOrchestrator(svc, caches, events)

	tx, err := o.Checkout(context.Background(), s, PaymentAttempt{
		Method: models.PaymentMethodCash,
		Amount: 15000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(13000), tx.TotalAmount)
	assert.Equal(t, int64(2000), tx.ChangeAmount)
	assert.Equal(t, "INV-20240115-0001", tx.InvoiceNumber)

	_ = s.WithCart(func(c *cart.Cart) error {
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, int64(0), c.TotalAmount())
		return nil
	})

	assert.Equal(t, 1, caches.calls)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventTypeSaleCompleted, events.events[0].EventType)
	assert.Equal(t, 3, events.events[0].ItemCount)
}

func TestCheckoutInsufficientPaymentNeverSubmits(t *testing.T) {
	_, s := sessionWithCart(t)
	svc := &fakeTxService{}
	o := NewOrchestrator(svc, nil, nil)

	_, err := o.Checkout(context.Background(), s, PaymentAttempt{
		Method: models.PaymentMethodCash,
		Amount: 10000,
	})
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	assert.Equal(t, 0, svc.calls)

	_ = s.WithCart(func(c *cart.Cart) error {
		assert.Equal(t, 2, c.Len())
		return nil
	})
}

func TestCheckoutServiceFailureKeepsCart(t *testing.T) {
	_, s := sessionWithCart(t)
	svc := &fakeTxService{err: errors.New("stock changed concurrently")}
	o := NewOrchestrator(svc, nil, nil)

	_, err := o.Checkout(context.Background(), s, PaymentAttempt{
		Method: models.PaymentMethodCash,
		Amount: 15000,
	})
	require.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Contains(t, err.Error(), "stock changed concurrently")

	_ = s.WithCart(func(c *cart.Cart) error {
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, int64(13000), c.TotalAmount())
		return nil
	})
}

func TestCheckoutEmptyCart(t *testing.T) {
	r := cart.NewRegistry()
	s := r.Open(models.Cashier{ID: 1, Name: "Siti"})
	o := NewOrchestrator(&fakeTxService{}, nil, nil)

	_, err := o.Checkout(context.Background(), s, PaymentAttempt{
		Method: models.PaymentMethodCash,
		Amount: 1000,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutRejectsReentrantSubmit(t *testing.T) {
	_, s := sessionWithCart(t)
	block := make(chan struct{})
	svc := &fakeTxService{block: block}
	o := NewOrchestrator(svc, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := o.Checkout(context.Background(), s, PaymentAttempt{
			Method: models.PaymentMethodCash,
			Amount: 15000,
		})
		done <- err
	}()

	// wait for the first submit to be in flight
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := o.Checkout(context.Background(), s, PaymentAttempt{
		Method: models.PaymentMethodCash,
		Amount: 15000,
	})
	assert.ErrorIs(t, err, ErrCheckoutInFlight)

	close(block)
	require.NoError(t, <-done)
}
