package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/fekuna/omnipos-marketplace-service/internal/api"
	"github.com/fekuna/omnipos-marketplace-service/internal/cache"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway/flutterwave"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway/paypal"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/metrics"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/outbox"
	"github.com/fekuna/omnipos-marketplace-service/internal/search"
	"github.com/fekuna/omnipos-marketplace-service/internal/settlement"

	approvalH "github.com/fekuna/omnipos-marketplace-service/internal/approval/handler"
	approvalRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/approval/repository"
	approvalUCPkg "github.com/fekuna/omnipos-marketplace-service/internal/approval/usecase"

	categoryH "github.com/fekuna/omnipos-marketplace-service/internal/category/handler"
	categoryRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/category/repository"
	categoryUCPkg "github.com/fekuna/omnipos-marketplace-service/internal/category/usecase"

	cartH "github.com/fekuna/omnipos-marketplace-service/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/cart/repository"
	cartUCPkg "github.com/fekuna/omnipos-marketplace-service/internal/cart/usecase"

	outboxRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/outbox/repository"

	prodH "github.com/fekuna/omnipos-marketplace-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-marketplace-service/internal/product/usecase"

	salesH "github.com/fekuna/omnipos-marketplace-service/internal/sales/handler"
	salesListenerPkg "github.com/fekuna/omnipos-marketplace-service/internal/sales/listener"
	salesRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/sales/repository"
	salesUCPkg "github.com/fekuna/omnipos-marketplace-service/internal/sales/usecase"

	payH "github.com/fekuna/omnipos-marketplace-service/internal/settlement/handler"
	payRepoPkg "github.com/fekuna/omnipos-marketplace-service/internal/settlement/repository"
	payUCPkg "github.com/fekuna/omnipos-marketplace-service/internal/settlement/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database and migrate
	db, err := database.Open(&cfg.Database)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Could not run migrations", zap.Error(err))
	}
	appLogger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	cartRepo := cartRepoPkg.NewPGRepository(db)
	payRepo := payRepoPkg.NewPGRepository(db)
	salesRepo := salesRepoPkg.NewPGRepository(db)
	approvalRepo := approvalRepoPkg.NewPGRepository(db)
	categoryRepo := categoryRepoPkg.NewPGRepository(db)
	outboxRepo := outboxRepoPkg.NewPGRepository(db)
	tm := database.NewTxManager(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		appLogger.Warn("Could not connect to Redis (caching disabled)", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5.5 Initialize Kafka
	kafkaWriter := outbox.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaWriter.Close()
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaReader.Close()
	appLogger.Info("Kafka configured", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 5.8 Initialize Elasticsearch
	var productIndex prodUCPkg.SearchIndex
	esClient, err := search.NewClient(&cfg.Elastic, otelhttp.NewTransport(http.DefaultTransport))
	if err != nil {
		appLogger.Warn("Could not create Elasticsearch client (search falls back to the database)", zap.Error(err))
	} else {
		productIndex = esClient
		indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
		if err := prodUCPkg.EnsureIndex(indexCtx, esClient); err != nil {
			appLogger.Warn("Could not create products index", zap.Error(err))
		}
		cancelIndex()
		appLogger.Info("Elasticsearch configured", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 5.9 Metrics and payment gateways
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	settings, err := settlement.NewSettings(&cfg.Settlement)
	if err != nil {
		appLogger.Fatal("Invalid settlement settings", zap.Error(err))
	}
	defaultRate, err := model.ParseFixed(cfg.Settlement.DefaultCommissionRate)
	if err != nil {
		appLogger.Fatal("Invalid default commission rate", zap.Error(err))
	}

	gateways := gateway.NewRegistry(
		flutterwave.NewClient(&cfg.Flutterwave, settings.GatewayTimeout),
		paypal.NewClient(&cfg.PayPal, settings.GatewayTimeout),
	)

	// 6. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, productIndex, defaultRate, appLogger)
	cartUC := cartUCPkg.NewCartUseCase(cartRepo, prodRepo, tm, appLogger)
	salesAgg := salesUCPkg.NewAggregator(salesRepo, cartRepo, tm, redisClient, appMetrics, appLogger)
	engine := payUCPkg.NewEngine(payRepo, cartRepo, tm, gateways, salesAgg, outboxRepo, settings, appMetrics, appLogger)
	approvalUC := approvalUCPkg.NewApprovalUseCase(approvalRepo, prodUC, tm, defaultRate, appLogger)
	categoryUC := categoryUCPkg.NewCategoryUseCase(categoryRepo, appLogger)

	// 6.5 Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := outbox.NewRelay(outboxRepo, kafkaWriter, outbox.DefaultInterval, appMetrics, appLogger)
	go relay.Run(ctx)

	paidCartListener := salesListenerPkg.NewPaidCartListener(kafkaReader, salesAgg, appLogger)
	go paidCartListener.Start(ctx)

	// 7. Initialize Handlers and HTTP server
	router := api.NewRouter(api.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        appMetrics,
		Gatherer:       registry,
		Ready:          db.PingContext,
	},
		prodH.NewProductHandler(prodUC, appLogger),
		categoryH.NewCategoryHandler(categoryUC, appLogger),
		cartH.NewCartHandler(cartUC, appLogger),
		payH.NewPaymentHandler(engine, appLogger),
		salesH.NewSalesHandler(salesAgg, appLogger),
		approvalH.NewRequestHandler(approvalUC, appLogger),
	)

	httpServer := &http.Server{
		Addr:         listenAddr(cfg.Server.HTTPPort),
		Handler:      otelhttp.NewHandler(router, "marketplace-http"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 8. Start gRPC health server
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC health server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	cancel()

	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
