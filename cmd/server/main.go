package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/claims"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/events"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/jwttoken"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/config"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/httpserver"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/logger"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/metrics"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/middleware"
	platformredis "github.com/Easycoder-lin/flight-delay-insurance/internal/platform/redis"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/handler"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/service"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/store"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/settlement"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Persistence: postgres when configured, in-memory otherwise.
	var (
		st store.Store
		db *sql.DB
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		st = pg
		log.Info("using postgres policy store")
	} else {
		st = store.NewInMemory()
		log.Info("using in-memory policy store")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		st = store.NewCached(st, redisClient.Client, log)
		log.Info("policy cache enabled")
	}

	// Settlement pool behind a circuit breaker.
	pool := settlement.NewPool(0, log)
	gateway := settlement.NewGuarded(pool, 5, 30*time.Second)

	// Notifications: kafka when configured, structured log otherwise. Either
	// way publishing is decoupled from the request path.
	var sink events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		sink = kafka
		log.Info("kafka notifications enabled", "topic", cfg.KafkaTopic)
	} else {
		sink = events.NewLog(log)
	}
	async := events.NewAsync(sink, 256, log)

	terms := service.Terms{
		PremiumCents:     cfg.PremiumCents,
		ClaimAmountCents: cfg.ClaimAmountCents,
		DelayThreshold:   cfg.DelayThreshold,
	}
	policies := service.New(st, pool, async, m, log, terms)
	evaluator := claims.New(st, gateway, async, m, log, cfg.NoDataTimeout)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "insurance-core", "insurance-api")
	h := handler.New(policies, evaluator, pool, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RequestTime,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Timeout(30*time.Second),
	)
	router.Get("/healthz", healthz(db, redisClient))
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		h.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting insurance server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := async.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// healthz reports process liveness plus the health of optional backends.
func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, `{"status":"degraded","postgres":"down"}`, http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"degraded","redis":"down"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
