package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/broker"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"

	branchH "github.com/fekuna/omnipos-stock-service/internal/branch/handler"
	branchUCPkg "github.com/fekuna/omnipos-stock-service/internal/branch/usecase"

	catH "github.com/fekuna/omnipos-stock-service/internal/category/handler"
	catUCPkg "github.com/fekuna/omnipos-stock-service/internal/category/usecase"

	ledgerH "github.com/fekuna/omnipos-stock-service/internal/ledger/handler"
	ledgerUCPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"

	prodH "github.com/fekuna/omnipos-stock-service/internal/product/handler"
	prodUCPkg "github.com/fekuna/omnipos-stock-service/internal/product/usecase"

	reconcileH "github.com/fekuna/omnipos-stock-service/internal/reconcile/handler"
	reconcileUCPkg "github.com/fekuna/omnipos-stock-service/internal/reconcile/usecase"

	serialUCPkg "github.com/fekuna/omnipos-stock-service/internal/serial/usecase"

	transferH "github.com/fekuna/omnipos-stock-service/internal/transfer/handler"
	transferUCPkg "github.com/fekuna/omnipos-stock-service/internal/transfer/usecase"

	variantH "github.com/fekuna/omnipos-stock-service/internal/variant/handler"
	variantListenerPkg "github.com/fekuna/omnipos-stock-service/internal/variant/listener"
	variantUCPkg "github.com/fekuna/omnipos-stock-service/internal/variant/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Metrics
	provider, shutdownMetrics, err := metrics.NewProvider(ctx, metrics.Config{
		Enabled:          cfg.Metrics.Enabled,
		ExporterEndpoint: cfg.Metrics.Endpoint,
		ServiceName:      "omnipos-stock",
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Could not initialize metrics", zap.Error(err))
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()
	stockMetrics, err := metrics.New(metrics.Config{ServiceName: "omnipos-stock"}, provider)
	if err != nil {
		appLogger.Fatal("Could not create instruments", zap.Error(err))
	}

	// 4. Store
	st, err := openStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Could not open store", zap.Error(err))
	}
	defer st.close()

	// 5. Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Kafka
	var publisher broker.Publisher
	var kafkaConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()

		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()
		publisher = producer
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 7. Initialize UseCases
	branchUC := branchUCPkg.NewBranchUseCase(st.branches, redisClient, appLogger)
	resolver := visibility.NewResolver(branchUC)
	catUC := catUCPkg.NewCategoryUseCase(st.categories, resolver, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(st.products, resolver, redisClient, appLogger)
	serialUC := serialUCPkg.NewSerialUseCase(st.serials, stockMetrics, appLogger)
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(st.ledger, stockMetrics, appLogger)
	variantUC := variantUCPkg.NewVariantUseCase(st.tx, st.variants, st.products, redisClient, branchUC, serialUC, ledgerUC, resolver, stockMetrics, appLogger)
	transferUC := transferUCPkg.NewTransferUseCase(
		transferUCPkg.Config{IdempotencyTTL: cfg.Transfer.IdempotencyTTL},
		st.tx, st.transfers, st.variants, variantUC, ledgerUC, branchUC, redisClient, publisher, stockMetrics, appLogger,
	)
	reconcileUC := reconcileUCPkg.NewReconcileUseCase(
		reconcileUCPkg.Config{PageSize: cfg.Reconcile.PageSize, LeaseTTL: cfg.Reconcile.LeaseTTL},
		st.tx, st.variants, variantUC, ledgerUC, redisClient, stockMetrics, appLogger,
	)

	// 8. Listener
	if kafkaConsumer != nil {
		stockListener := variantListenerPkg.NewStockListener(kafkaConsumer, variantUC, appLogger)
		go stockListener.Start(ctx)
	}

	// 9. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(rpc.ContextInterceptor(appLogger)),
	)

	grpcServer.RegisterService(&branchH.ServiceDesc, branchH.NewBranchHandler(branchUC, appLogger))
	grpcServer.RegisterService(&catH.ServiceDesc, catH.NewCategoryHandler(catUC, appLogger))
	grpcServer.RegisterService(&prodH.ServiceDesc, prodH.NewProductHandler(prodUC, appLogger))
	grpcServer.RegisterService(&variantH.ServiceDesc, variantH.NewVariantHandler(variantUC, serialUC, appLogger))
	grpcServer.RegisterService(&transferH.ServiceDesc, transferH.NewTransferHandler(transferUC, appLogger))
	grpcServer.RegisterService(&ledgerH.ServiceDesc, ledgerH.NewLedgerHandler(ledgerUC, variantUC, appLogger))
	grpcServer.RegisterService(&reconcileH.ServiceDesc, reconcileH.NewMaintenanceHandler(reconcileUC, appLogger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port), zap.String("store", cfg.Store.Driver))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
