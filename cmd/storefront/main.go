package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/forms"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB / slot ---
	slot, sequences, cleanupStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupStore()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", zap.Int("products", cat.Len()), zap.String("file", cfg.CatalogFile))

	// --- AMQP ---
	publisher, err := openPublisher(cfg, sequences, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher close", zap.Error(err))
		}
	}()

	sessions := session.NewRegistry(slot, session.WithLogger(logger))
	go sessions.RunSweeper(ctx, time.Minute, cfg.SessionIdleTimeout)

	// --- HTTP ---
	router := httpapi.NewRouter(httpapi.Deps{
		Sessions:         sessions,
		Catalog:          cat,
		Forms:            forms.NewSubmitter(forms.WithDelay(cfg.SubmitDelay), forms.WithLogger(logger)),
		Publisher:        publisher,
		FinalizeDelay:    cfg.FinalizeDelay,
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		SecureCookies:    cfg.SecureCookies,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.FinalizeDelay + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("slot_backend", cfg.SlotBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// openStorage picks the cart slot backend. Postgres also backs the event
// sequences; the other backends keep them in memory.
func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (cart.Slot, events.SequenceRepository, func(), error) {
	switch cfg.SlotBackend {
	case config.SlotFile:
		slot, err := storage.NewFileSlot(cfg.SlotDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("file slot: %w", err)
		}
		return slot, events.NewMemorySequences(), func() {}, nil

	case config.SlotPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, nil, nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db connect: %w", err)
		}
		sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		cleanup := func() {
			_ = sqlDB.Close()
			pool.Close()
		}
		return storage.NewPostgresSlot(pool), events.NewPostgresSequences(sqlDB), cleanup, nil

	default:
		return storage.NewMemorySlot(), events.NewMemorySequences(), func() {}, nil
	}
}

func openPublisher(cfg config.Config, sequences events.SequenceRepository, logger *zap.Logger) (events.Publisher, error) {
	if !cfg.PublishEvents {
		logger.Info("event publishing disabled")
		return events.NopPublisher{}, nil
	}

	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	pub, err := events.NewRabbitPublisher(conn, sequences, events.PublisherOptions{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	return &connPublisher{RabbitPublisher: pub, conn: conn}, nil
}

// connPublisher closes the AMQP connection along with the channel.
type connPublisher struct {
	*events.RabbitPublisher
	conn interface{ Close() error }
}

func (p *connPublisher) Close() error {
	chErr := p.RabbitPublisher.Close()
	connErr := p.conn.Close()
	return errors.Join(chErr, connErr)
}
