package main

import (
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/branch"
	branchRepoPkg "github.com/fekuna/omnipos-stock-service/internal/branch/repository"
	"github.com/fekuna/omnipos-stock-service/internal/category"
	catRepoPkg "github.com/fekuna/omnipos-stock-service/internal/category/repository"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerRepoPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	serialRepoPkg "github.com/fekuna/omnipos-stock-service/internal/serial/repository"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/storage/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	transferRepoPkg "github.com/fekuna/omnipos-stock-service/internal/transfer/repository"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	variantRepoPkg "github.com/fekuna/omnipos-stock-service/internal/variant/repository"
	"go.uber.org/zap"
)

type store struct {
	tx         storage.Transactor
	branches   branch.Repository
	categories category.Repository
	products   product.Repository
	variants   variant.Repository
	serials    serial.Repository
	ledger     ledger.Repository
	transfers  transfer.Repository
	close      func()
}

func openStore(cfg *config.Config, log logger.ZapLogger) (*store, error) {
	lockTimeout := time.Duration(cfg.Postgres.LockTimeoutMS) * time.Millisecond

	switch cfg.Store.Driver {
	case "memory":
		db := memory.NewDB(lockTimeout)
		log.Warn("Using in-process store: single writer, data is lost on restart; not for production")
		return &store{
			tx:         db,
			branches:   branchRepoPkg.NewMemoryRepository(db),
			categories: catRepoPkg.NewMemoryRepository(db),
			products:   prodRepoPkg.NewMemoryRepository(db),
			variants:   variantRepoPkg.NewMemoryRepository(db),
			serials:    serialRepoPkg.NewMemoryRepository(db),
			ledger:     ledgerRepoPkg.NewMemoryRepository(db),
			transfers:  transferRepoPkg.NewMemoryRepository(db),
			close:      func() {},
		}, nil

	case "postgres":
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
			return nil, err
		}
		log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		if cfg.Postgres.Migrate {
			if err := postgres.RunMigrations(db.DB); err != nil {
				_ = db.Close()
				return nil, err
			}
			log.Info("Database migrations applied")
		}

		return &store{
			tx:         postgres.NewTransactor(db, lockTimeout),
			branches:   branchRepoPkg.NewPGRepository(db),
			categories: catRepoPkg.NewPGRepository(db),
			products:   prodRepoPkg.NewPGRepository(db),
			variants:   variantRepoPkg.NewPGRepository(db),
			serials:    serialRepoPkg.NewPGRepository(db),
			ledger:     ledgerRepoPkg.NewPGRepository(db),
			transfers:  transferRepoPkg.NewPGRepository(db),
			close:      func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
}
