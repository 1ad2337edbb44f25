package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/models"
	"pos-service/internal/printer"
	"pos-service/internal/receipt"
	"pos-service/internal/redisclient"
	"pos-service/internal/txservice"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProductSource supplies catalog snapshots for addItem.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// Printer dispatches a transaction to the print surface.
type Printer interface {
	Print(ctx context.Context, tx *models.Transaction) error
}

// Handler contains HTTP handlers
type Handler struct {
	registry     *cart.Registry
	products     ProductSource
	orchestrator *checkout.Orchestrator
	transactions txservice.Service
	printer      Printer
	cache        *redisclient.Client
	store        receipt.StoreInfo
}

// NewHandler creates a new HTTP handler. cache and printer may be nil.
func NewHandler(
	registry *cart.Registry,
	products ProductSource,
	orchestrator *checkout.Orchestrator,
	transactions txservice.Service,
	p Printer,
	cache *redisclient.Client,
	store receipt.StoreInfo,
) *Handler {
	return &Handler{
		registry:     registry,
		products:     products,
		orchestrator: orchestrator,
		transactions: transactions,
		printer:      p,
		cache:        cache,
		store:        store,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(routeGuard())
	{
		v1.POST("/sessions", h.openSession)
		v1.DELETE("/sessions/:id", h.closeSession)

		v1.GET("/sessions/:id/cart", h.getCart)
		v1.POST("/sessions/:id/cart/items", h.addItem)
		v1.PUT("/sessions/:id/cart/items/:productID", h.updateItem)
		v1.DELETE("/sessions/:id/cart/items/:productID", h.removeItem)

		v1.POST("/sessions/:id/checkout", h.doCheckout)

		v1.GET("/transactions/invoice/:invoice", h.getTransaction)
		v1.GET("/transactions/invoice/:invoice/receipt", h.getReceipt)
		v1.POST("/transactions/invoice/:invoice/print", h.printReceipt)

		v1.GET("/summary/today", h.todaySummary)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type openSessionRequest struct {
	CashierID   int64  `json:"cashier_id" binding:"required"`
	CashierName string `json:"cashier_name" binding:"required"`
}

func (h *Handler) openSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	s := h.registry.Open(models.Cashier{ID: req.CashierID, Name: req.CashierName})
	c.JSON(http.StatusCreated, gin.H{"session_id": s.ID})
}

func (h *Handler) closeSession(c *gin.Context) {
	if err := h.registry.Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) (*cart.Session, bool) {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}

type cartView struct {
	Lines          []cart.Line `json:"lines"`
	TotalAmount    int64       `json:"total_amount"`
	TotalItemCount int         `json:"total_item_count"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{
		Lines:          c.Lines(),
		TotalAmount:    c.TotalAmount(),
		TotalItemCount: c.TotalItemCount(),
	}
}

func (h *Handler) getCart(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var view cartView
	_ = s.WithCart(func(ct *cart.Cart) error {
		view = viewOf(ct)
		return nil
	})
	c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) addItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catalog lookup failed", "details": err.Error()})
		return
	}

	var view cartView
	err = s.WithCart(func(ct *cart.Cart) error {
		if err := ct.AddItem(*product, req.Quantity); err != nil {
			return err
		}
		view = viewOf(ct)
		return nil
	})
	if err != nil {
		if errors.Is(err, cart.ErrStockExhausted) {
			c.JSON(http.StatusConflict, gin.H{"error": "Product is out of stock"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var view cartView
	_ = s.WithCart(func(ct *cart.Cart) error {
		ct.UpdateQuantity(productID, req.Quantity)
		view = viewOf(ct)
		return nil
	})
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var view cartView
	_ = s.WithCart(func(ct *cart.Cart) error {
		ct.RemoveItem(productID)
		view = viewOf(ct)
		return nil
	})
	c.JSON(http.StatusOK, view)
}

func (h *Handler) doCheckout(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var attempt checkout.PaymentAttempt
	if err := c.ShouldBindJSON(&attempt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	tx, err := h.orchestrator.Checkout(c.Request.Context(), s, attempt)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart),
			errors.Is(err, checkout.ErrInsufficientPayment):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrCheckoutInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrSubmissionFailed):
			// the service's reason reaches the operator unchanged
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) getTransaction(c *gin.Context) {
	tx, err := h.transactions.GetTransactionByInvoice(c.Request.Context(), c.Param("invoice"))
	if err != nil {
		if errors.Is(err, txservice.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transaction lookup failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) getReceipt(c *gin.Context) {
	tx, err := h.transactions.GetTransactionByInvoice(c.Request.Context(), c.Param("invoice"))
	if err != nil {
		if errors.Is(err, txservice.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transaction lookup failed", "details": err.Error()})
		return
	}

	var text string
	switch c.DefaultQuery("layout", "thermal") {
	case "preview":
		text = receipt.Preview(tx, h.store)
	case "thermal":
		text = receipt.Thermal(tx, h.store)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown layout"})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *Handler) printReceipt(c *gin.Context) {
	if h.printer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No printer configured"})
		return
	}

	tx, err := h.transactions.GetTransactionByInvoice(c.Request.Context(), c.Param("invoice"))
	if err != nil {
		if errors.Is(err, txservice.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transaction lookup failed", "details": err.Error()})
		return
	}

	if err := h.printer.Print(c.Request.Context(), tx); err != nil {
		if errors.Is(err, printer.ErrPrintUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Print failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dispatched"})
}

func (h *Handler) todaySummary(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if s, err := h.cache.GetTodaySummary(ctx, time.Now()); err == nil {
			c.JSON(http.StatusOK, s)
			return
		}
	}

	s, err := h.transactions.TodaySummary(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Summary unavailable", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

// routeGuard is a thin presence check: requests must carry a bearer token.
// Validating the token is the auth collaborator's job, not this service's.
func routeGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
