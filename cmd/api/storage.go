package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/cosrent/internal/config"
	"github.com/dejobratic/cosrent/internal/database"
	idemmemory "github.com/dejobratic/cosrent/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/cosrent/internal/idempotency/postgres"
	"github.com/dejobratic/cosrent/internal/rental/adapters/memory"
	rentalpostgres "github.com/dejobratic/cosrent/internal/rental/adapters/postgres"
	rentalsqlite "github.com/dejobratic/cosrent/internal/rental/adapters/sqlite"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/dejobratic/cosrent/internal/storage/cloudinary"
	"github.com/dejobratic/cosrent/internal/storage/disk"
)

type storage struct {
	bookings    ports.BookingRepository
	payments    ports.PaymentRepository
	products    ports.ProductRepository
	idempotency ports.IdempotencyStore
	pinger      database.Pinger
	close       func()
}

type alwaysReady struct{}

func (alwaysReady) Ping(context.Context) error { return nil }

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		pool, err := database.NewPool(ctx, database.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("create database pool: %w", err)
		}

		return &storage{
			bookings:    rentalpostgres.NewBookingRepository(pool),
			payments:    rentalpostgres.NewPaymentRepository(pool),
			products:    rentalpostgres.NewProductRepository(pool),
			idempotency: idempostgres.NewStore(pool, cfg.Rental.IdempotencyRetention),
			pinger:      pool,
			close:       pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := rentalsqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)

		return &storage{
			bookings:    store.Bookings(),
			payments:    store.Payments(),
			products:    store.Products(),
			idempotency: idemmemory.NewStore(cfg.Rental.IdempotencyRetention),
			pinger:      store,
			close: func() {
				if err := store.Close(); err != nil {
					logger.Error("close sqlite store", "error", err)
				}
			},
		}, nil

	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		bookings := memory.NewBookingRepository()
		return &storage{
			bookings:    bookings,
			payments:    memory.NewPaymentRepository(bookings),
			products:    memory.NewProductRepository(),
			idempotency: idemmemory.NewStore(cfg.Rental.IdempotencyRetention),
			pinger:      alwaysReady{},
			close:       func() {},
		}, nil
	}
}

func openProofStore(cfg *config.Config, logger *slog.Logger) (ports.ProofStore, error) {
	if cfg.Uploads.CloudinaryURL != "" {
		store, err := cloudinary.NewStore(cfg.Uploads.CloudinaryURL, cfg.Uploads.Folder)
		if err != nil {
			return nil, err
		}
		logger.Info("storing payment proofs on cloudinary", "folder", cfg.Uploads.Folder)
		return store, nil
	}

	store, err := disk.NewStore(cfg.Uploads.Dir, cfg.HTTP.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	logger.Info("storing payment proofs on disk", "dir", cfg.Uploads.Dir)
	return store, nil
}
