package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"verifdesk/internal/jwttoken"
	"verifdesk/internal/platform/config"
	"verifdesk/internal/platform/httpserver"
	"verifdesk/internal/platform/logger"
	platformmetrics "verifdesk/internal/platform/metrics"
	"verifdesk/internal/platform/middleware"
	"verifdesk/internal/platform/postgres"
	"verifdesk/internal/platform/redis"
	"verifdesk/internal/verification/handler"
	"verifdesk/internal/verification/metrics"
	"verifdesk/internal/verification/queue"
	"verifdesk/internal/verification/seed"
	"verifdesk/internal/verification/service"
	"verifdesk/internal/verification/stats"
	"verifdesk/internal/verification/store"
	id "verifdesk/pkg/domain"
	"verifdesk/pkg/platform/audit"
	auditkafka "verifdesk/pkg/platform/audit/kafka"
	auditmemory "verifdesk/pkg/platform/audit/store/memory"
	"verifdesk/pkg/platform/audit/worker"
	"verifdesk/pkg/platform/httputil"
	"verifdesk/pkg/platform/middleware/metadata"
	"verifdesk/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout  = 15 * time.Second
	auditBufferSize = 1024
	startupTimeout  = 30 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	issueToken := pflag.String("issue-token", "", "print a signed reviewer token for the given reviewer id and exit")
	pflag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if *issueToken != "" {
		if err := printToken(cfg.Auth, *issueToken); err != nil {
			log.Error("failed to issue token", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func printToken(cfg config.AuthConfig, reviewer string) error {
	reviewerID, err := id.ParseReviewerID(reviewer)
	if err != nil {
		return err
	}
	token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).IssueReviewerToken(reviewerID, cfg.TokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := platformmetrics.New(registry)
	verificationMetrics := metrics.New(registry)

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	var checks []healthCheck
	group, groupCtx := errgroup.WithContext(ctx)

	requestStore, db, err := buildStore(startCtx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks = append(checks, healthCheck{name: "postgres", ping: db.PingContext})
	}

	statsCache, redisClient, err := buildStatsCache(startCtx, cfg, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, healthCheck{name: "redis", ping: redisClient.Health})
	}

	auditStore, publisher, err := buildAuditStore(startCtx, cfg.Kafka, log, verificationMetrics)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
		checks = append(checks, healthCheck{name: "kafka", ping: publisher.Health})
	}
	if w, ok := auditStore.(*worker.Worker); ok {
		group.Go(func() error { return w.Run(groupCtx) })
	}

	svc := service.New(requestStore,
		service.WithLogger(log),
		service.WithMetrics(verificationMetrics),
		service.WithStatsCache(statsCache),
		service.WithAudit(audit.NewEmitter(auditStore, audit.WithLogger(log))),
		service.WithLocation(cfg.Stats.Location),
		service.WithEngine(queue.NewEngine(language.Make(cfg.CollationLocale))),
	)

	if cfg.SeedFile != "" {
		if _, err := seed.LoadFile(startCtx, cfg.SeedFile, svc, log); err != nil {
			return fmt.Errorf("load seed data: %w", err)
		}
	}

	validator := jwttoken.NewValidator(jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer))
	if cfg.Auth.IntakeToken == "" {
		log.Warn("INTAKE_TOKEN not set, intake routes will reject every call")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log, httpMetrics))
	r.Use(middleware.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(requestTimeout))
		api.Use(middleware.ContentTypeJSON)
		handler.New(svc, log, validator, cfg.Auth.IntakeToken).Register(api)
	})

	srv := httpserver.New(cfg.Addr, r)
	log.Info("starting verifdesk",
		"addr", cfg.Addr,
		"postgres", db != nil,
		"redis", redisClient != nil,
		"kafka", publisher != nil,
	)
	group.Go(func() error { return httpserver.Run(groupCtx, srv, log) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildStore selects PostgreSQL when DATABASE_URL is set and migrates it.
func buildStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (service.Store, *sql.DB, error) {
	if cfg.URL == "" {
		log.Info("using in-memory verification store")
		return store.NewInMemory(), nil, nil
	}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return store.NewPostgres(db), db, nil
}

func buildStatsCache(ctx context.Context, cfg config.Server, log *slog.Logger) (stats.Cache, *redis.Client, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		log.Info("using in-memory stats cache")
		return stats.NewMemoryCache(cfg.Stats.CacheTTL), nil, nil
	}
	return stats.NewRedisCache(client.Client, cfg.Stats.CacheTTL), client, nil
}

// buildAuditStore returns a buffered worker in front of Kafka when brokers are
// configured, else an in-memory store.
func buildAuditStore(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, m *metrics.Metrics) (audit.Store, *auditkafka.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("using in-memory audit store")
		return auditmemory.NewInMemoryStore(), nil, nil
	}
	publisher, err := auditkafka.New(cfg.Brokers, cfg.ClientID, cfg.AuditTopic, auditkafka.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	if err := publisher.EnsureTopic(ctx); err != nil {
		publisher.Close()
		return nil, nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	w := worker.NewWorker(publisher, auditBufferSize,
		worker.WithLogger(log),
		worker.WithFailureHook(func(error) { m.IncrementAuditFailure() }),
	)
	return w, publisher, nil
}

type healthCheck struct {
	name string
	ping func(context.Context) error
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.ping(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[c.name] = "unavailable"
				continue
			}
			body[c.name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
