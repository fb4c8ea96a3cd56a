package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Nicoding1996/art-society/internal/admin"
	"github.com/Nicoding1996/art-society/internal/archive"
	"github.com/Nicoding1996/art-society/internal/config"
	"github.com/Nicoding1996/art-society/internal/database"
	"github.com/Nicoding1996/art-society/internal/events"
	"github.com/Nicoding1996/art-society/internal/handler/health"
	"github.com/Nicoding1996/art-society/internal/identity"
	"github.com/Nicoding1996/art-society/internal/leaderboard"
	"github.com/Nicoding1996/art-society/internal/lock"
	"github.com/Nicoding1996/art-society/internal/metrics"
	"github.com/Nicoding1996/art-society/internal/migrations"
	"github.com/Nicoding1996/art-society/internal/recorder"
	"github.com/Nicoding1996/art-society/internal/server"
	"github.com/Nicoding1996/art-society/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	checks := make(map[string]health.Checker)

	// --- Store ---
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	checks["store"] = health.CheckFunc(st.Ping)

	// --- Identity locks ---
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.LockTTL)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")
	}

	// --- Events ---
	m := metrics.New()
	broker := events.NewBroker()
	opts := recorder.Options{Publisher: broker, Metrics: m}

	if cfg.NATSURL != "" {
		nc, err := events.NewNATS(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer nc.Close()

		// Every instance relays the subject into its own broker, so
		// streams see games recorded anywhere.
		stop, err := nc.Relay(broker)
		if err != nil {
			return fmt.Errorf("relaying nats events: %w", err)
		}
		defer stop()

		opts.Publisher = nc
		checks["nats"] = nc
		logger.Info("connected to nats", "subject", cfg.NATSSubject)
	}

	// --- Score archive ---
	if cfg.ClickHouseAddr != "" {
		ch, err := archive.NewClickHouse(ctx, archive.Options{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			return fmt.Errorf("connecting to clickhouse: %w", err)
		}
		defer ch.Close()

		opts.Archive = ch
		checks["clickhouse"] = ch
		logger.Info("connected to clickhouse", "addr", cfg.ClickHouseAddr)
	}

	// --- Services ---
	resolver := identity.NewResolver(st, locker, logger).WithMetrics(m)

	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:         logger,
		History:        leaderboard.NewService(st, logger),
		Recorder:       recorder.New(st, resolver, logger, opts),
		Identities:     resolver,
		Importer:       admin.NewImporter(st, logger),
		Broker:         broker,
		Metrics:        m,
		Health:         checks,
		AdminTokenHash: cfg.AdminTokenHash,
		SPADir:         cfg.SPADir,
	})
	if cfg.AdminTokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH not set, admin routes disabled")
	}

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openStore builds the store selected by DB_DRIVER and applies migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil

	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := migrations.Run(db, string(store.Postgres)); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to postgres")
		return store.NewSQL(db, store.Postgres), func() { db.Close() }, nil

	default:
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		if err := migrations.Run(db, string(store.SQLite)); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		return store.NewSQL(db, store.SQLite), func() { db.Close() }, nil
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
