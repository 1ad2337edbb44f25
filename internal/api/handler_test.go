package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/models"
	"pos-service/internal/printer"
	"pos-service/internal/receipt"
	"pos-service/internal/txservice"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	byID map[int64]models.Product
}

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

type fakeTxService struct {
	mu        sync.Mutex
	byInvoice map[string]*models.Transaction
	nextID    int64
}

func newFakeTxService() *fakeTxService {
	return &fakeTxService{byInvoice: make(map[string]*models.Transaction)}
}

func (f *fakeTxService) CreateTransaction(_ context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	items := make([]models.TransactionItem, len(req.Items))
	for i, it := range req.Items {
		sub := it.Price * int64(it.Quantity)
		total += sub
		items[i] = models.TransactionItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  sub,
		}
	}

	change := req.PaymentAmount - total
	if change < 0 {
		change = 0
	}

	f.nextID++
	tx := &models.Transaction{
		ID:            f.nextID,
		InvoiceNumber: fmt.Sprintf("INV-20240115-%04d", f.nextID),
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		PaymentAmount: req.PaymentAmount,
		ChangeAmount:  change,
		Items:         items,
		CreatedAt:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	f.byInvoice[tx.InvoiceNumber] = tx
	return tx, nil
}

func (f *fakeTxService) GetTransactionByInvoice(_ context.Context, invoice string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.byInvoice[invoice]
	if !ok {
		return nil, txservice.ErrNotFound
	}
	return tx, nil
}

func (f *fakeTxService) TodaySummary(_ context.Context) (*models.TodaySummary, error) {
	return &models.TodaySummary{TotalTransactions: 4, TotalRevenue: 52000}, nil
}

type fakePrinter struct {
	calls int
	err   error
}

func (f *fakePrinter) Print(_ context.Context, _ *models.Transaction) error {
	f.calls++
	return f.err
}

type testEnv struct {
	router  *gin.Engine
	service *fakeTxService
	printer *fakePrinter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := &fakeProducts{byID: map[int64]models.Product{
		1: {ID: 1, Code: "P-001", Name: "Product A", Price: 5000, Stock: 10, Unit: "pcs"},
		2: {ID: 2, Code: "P-002", Name: "Product B", Price: 3000, Stock: 5, Unit: "pcs"},
		3: {ID: 3, Code: "P-003", Name: "Sold Out", Price: 1000, Stock: 0, Unit: "pcs"},
	}}

	service := newFakeTxService()
	p := &fakePrinter{}
	store := receipt.StoreInfo{Name: "BUMDES BETOYOKAUMAN", Address: "Desa Betoyokauman, Jawa Timur"}

	h := NewHandler(
		cart.NewRegistry(),
		products,
		checkout.NewOrchestrator(service, nil, nil),
		service,
		p,
		nil,
		store,
	)

	router := gin.New()
	h.SetupRoutes(router)
	return &testEnv{router: router, service: service, printer: p}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/sessions", gin.H{"cashier_id": 1, "cashier_name": "Siti"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestRoutesRequireCredentials(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthNeedsNoCredentials(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/cart", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddItemAndCartTotals(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 2})
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Lines          []cart.Line `json:"lines"`
		TotalAmount    int64       `json:"total_amount"`
		TotalItemCount int         `json:"total_item_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, int64(13000), view.TotalAmount)
	assert.Equal(t, 3, view.TotalItemCount)
}

func TestAddItemErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 3})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateToZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/cart/items/1", gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Lines []cart.Line `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)
}

func TestCheckoutSuccess(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/checkout",
		gin.H{"payment_method": "cash", "payment_amount": 15000})
	require.Equal(t, http.StatusCreated, w.Code)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
	assert.Equal(t, int64(10000), tx.TotalAmount)
	assert.Equal(t, int64(5000), tx.ChangeAmount)

	w = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Lines []cart.Line `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)
}

func TestCheckoutInsufficientPayment(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/checkout",
		gin.H{"payment_method": "cash", "payment_amount": 4000})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/checkout",
		gin.H{"payment_method": "cash", "payment_amount": 10000})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReceiptEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/checkout",
		gin.H{"payment_method": "cash", "payment_amount": 15000})
	require.Equal(t, http.StatusCreated, w.Code)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))

	w = env.do(t, http.MethodGet, "/api/v1/transactions/invoice/"+tx.InvoiceNumber+"/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "TOTAL")
	assert.Contains(t, w.Body.String(), "Rp10.000")

	w = env.do(t, http.MethodGet, "/api/v1/transactions/invoice/"+tx.InvoiceNumber+"/receipt?layout=preview", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/transactions/invoice/"+tx.InvoiceNumber+"/receipt?layout=dot-matrix", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/transactions/invoice/INV-00000000-0000/receipt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrintEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cart/items", gin.H{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/checkout",
		gin.H{"payment_method": "cash", "payment_amount": 5000})
	require.Equal(t, http.StatusCreated, w.Code)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))

	w = env.do(t, http.MethodPost, "/api/v1/transactions/invoice/"+tx.InvoiceNumber+"/print", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.printer.calls)

	env.printer.err = fmt.Errorf("%w: spool full", printer.ErrPrintUnavailable)
	w = env.do(t, http.MethodPost, "/api/v1/transactions/invoice/"+tx.InvoiceNumber+"/print", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTodaySummaryFallsBackToService(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/summary/today", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var s models.TodaySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, int64(4), s.TotalTransactions)
	assert.Equal(t, int64(52000), s.TotalRevenue)
}
