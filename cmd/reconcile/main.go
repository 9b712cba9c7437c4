// Command reconcile runs one drift sweep against the PostgreSQL store and
// prints the summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	branchRepoPkg "github.com/fekuna/omnipos-stock-service/internal/branch/repository"
	branchUCPkg "github.com/fekuna/omnipos-stock-service/internal/branch/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	ledgerRepoPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgerUCPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	prodRepoPkg "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	"github.com/fekuna/omnipos-stock-service/internal/reconcile/dto"
	reconcileUCPkg "github.com/fekuna/omnipos-stock-service/internal/reconcile/usecase"
	serialRepoPkg "github.com/fekuna/omnipos-stock-service/internal/serial/repository"
	serialUCPkg "github.com/fekuna/omnipos-stock-service/internal/serial/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/storage/postgres"
	variantRepoPkg "github.com/fekuna/omnipos-stock-service/internal/variant/repository"
	variantUCPkg "github.com/fekuna/omnipos-stock-service/internal/variant/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	repair := flag.Bool("repair", false, "rewrite drifted quantities instead of only reporting them")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	if cfg.Store.Driver != "postgres" {
		appLogger.Fatal("reconcile requires STORE_DRIVER=postgres", zap.String("driver", cfg.Store.Driver))
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

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
	} else {
		appLogger.Warn("Redis disabled; running without a sweep lease")
	}

	tx := postgres.NewTransactor(db, time.Duration(cfg.Postgres.LockTimeoutMS)*time.Millisecond)
	variantRepo := variantRepoPkg.NewPGRepository(db)

	branchUC := branchUCPkg.NewBranchUseCase(branchRepoPkg.NewPGRepository(db), redisClient, appLogger)
	resolver := visibility.NewResolver(branchUC)
	serialUC := serialUCPkg.NewSerialUseCase(serialRepoPkg.NewPGRepository(db), nil, appLogger)
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepoPkg.NewPGRepository(db), nil, appLogger)
	variantUC := variantUCPkg.NewVariantUseCase(tx, variantRepo, prodRepoPkg.NewPGRepository(db), redisClient, branchUC, serialUC, ledgerUC, resolver, nil, appLogger)
	reconcileUC := reconcileUCPkg.NewReconcileUseCase(
		reconcileUCPkg.Config{PageSize: cfg.Reconcile.PageSize, LeaseTTL: cfg.Reconcile.LeaseTTL},
		tx, variantRepo, variantUC, ledgerUC, redisClient, nil, appLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := dto.ModeReport
	if *repair {
		mode = dto.ModeRepair
	}

	summary, err := reconcileUC.ReconcileAll(ctx, mode)
	if err != nil {
		appLogger.Fatal("Reconcile failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		appLogger.Error("Could not write summary", zap.Error(err))
	}
	if summary.Failed > 0 {
		appLogger.Sync()
		os.Exit(1)
	}
}
