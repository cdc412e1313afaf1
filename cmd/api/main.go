package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/growshop/lockledger/internal/api"
	"github.com/growshop/lockledger/internal/cache"
	"github.com/growshop/lockledger/internal/config"
	"github.com/growshop/lockledger/internal/donation"
	"github.com/growshop/lockledger/internal/infra/logging"
	"github.com/growshop/lockledger/internal/infra/pgutils"
	"github.com/growshop/lockledger/internal/notify"
	"github.com/growshop/lockledger/internal/services/ledger"
	"github.com/growshop/lockledger/pkg/envconf"
	"github.com/growshop/lockledger/pkg/shutdown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(config.Config)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	queue := shutdown.NewQueue()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := queue.Drain(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	queue.Add(func(context.Context) error {
		slog.Info("closing db pool")
		return db.Close()
	})

	ledgerSvc := ledger.New(db)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		err = rdb.Ping(ctx).Err()
		if err != nil {
			// the cache is an optimization; the service runs without it
			slog.Warn("redis unreachable, continuing without balance cache", "error", err)
		} else {
			ledgerSvc = ledgerSvc.WithCache(cache.NewBalanceCache(rdb))

			queue.Add(func(context.Context) error {
				return rdb.Close()
			})
		}
	}

	sink := notify.NewDiscordWebhook(cfg.Notify.DonationWebhookURL)
	pipeline := donation.NewPipeline(ledgerSvc, sink)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, ledgerSvc, pipeline)

	queue.Add(func(c context.Context) error {
		slog.Info("shutting down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("ledger API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; the deferred queue drain will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
