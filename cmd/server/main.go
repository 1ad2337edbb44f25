package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-service/config"
	"pos-service/internal/api"
	"pos-service/internal/broker"
	"pos-service/internal/cart"
	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/printer"
	"pos-service/internal/receipt"
	"pos-service/internal/redisclient"
	"pos-service/internal/summary"
	"pos-service/internal/txservice"
	"pos-service/internal/util"
	"pos-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting pos service")

	tp, err := util.InitTracer("pos-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	var txSvc txservice.Service
	switch cfg.Services.TransactionMode {
	case "local":
		store, err := txservice.NewStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
		log.Println("Database connected, running in local transaction mode")
		txSvc = store
	case "remote":
		txSvc = txservice.NewClient(cfg.Services.TransactionURL, cfg.Services.RequestTimeout)
		log.Printf("Using remote transaction service at %s", cfg.Services.TransactionURL)
	default:
		log.Fatalf("Unknown TRANSACTION_MODE: %q", cfg.Services.TransactionMode)
	}

	catalogClient := catalog.NewClient(cfg.Services.CatalogURL, cfg.Services.RequestTimeout, redisClient)

	registry := cart.NewRegistry()
	orchestrator := checkout.NewOrchestrator(txSvc, catalogClient, eventPublisher)

	storeInfo := receipt.StoreInfo{
		Name:    cfg.Store.Name,
		Address: cfg.Store.Address,
		Phone:   cfg.Store.Phone,
	}
	dispatcher := printer.NewDispatcher(&printer.SpoolSurface{Dir: cfg.Printer.SpoolDir}, storeInfo)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	saleConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales, cfg.Kafka.ConsumerGroup)
	summaryWorker := worker.NewSummaryWorker(saleConsumer, redisClient)
	go func() {
		if err := summaryWorker.Start(workerCtx); err != nil {
			log.Printf("Summary worker error: %v", err)
		}
	}()

	poller := summary.NewPoller(txSvc, redisClient, cfg.Summary.PollInterval)
	go poller.Run(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(registry, catalogClient, orchestrator, txSvc, dispatcher, redisClient, storeInfo)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if err := summaryWorker.Stop(); err != nil {
		log.Printf("Summary worker stop error: %v", err)
	}

	log.Println("Server exited")
}
