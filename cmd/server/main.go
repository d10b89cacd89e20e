package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"registrations/internal/audit"
	"registrations/internal/platform/config"
	"registrations/internal/platform/httpserver"
	"registrations/internal/platform/logger"
	"registrations/internal/platform/metrics"
	redisclient "registrations/internal/platform/redis"
	"registrations/internal/registration/handler"
	"registrations/internal/registration/store"
	httptransport "registrations/internal/transport/http"
)

const auditBufferSize = 1024

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	backend, closeBackend, err := buildBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	sink, closeSink, err := buildAuditSink(cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := audit.NewPublisher(sink, audit.WithAsyncBuffer(auditBufferSize), audit.WithLogger(log))
	defer publisher.Close()

	registrations := store.NewRegistrations(backend,
		store.WithTTL(cfg.Store.RecordTTL),
		store.WithMetrics(m),
	)
	h := handler.New(registrations, log, m, publisher)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  m,
		Gatherer: reg,
		Health:   registrations,
		API:      []httptransport.RouteRegistrar{h},
	})
	srv := httpserver.New(cfg.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting registrations service",
			"addr", cfg.Addr,
			"store_backend", cfg.Store.Backend,
			"kafka_audit", cfg.Audit.KafkaEnabled(),
		)
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout)
	})
	return g.Wait()
}

func buildBackend(ctx context.Context, cfg config.Server, log *slog.Logger) (store.Backend, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close redis client", "error", err)
			}
		}
		return store.NewRedisBackend(client.Client, store.WithKeyPrefix(cfg.Redis.KeyPrefix)), closeFn, nil
	default:
		return store.NewMemoryBackend(cfg.Store.MemoryCleanupInterval), func() {}, nil
	}
}

func buildAuditSink(cfg config.Server, log *slog.Logger) (audit.Sink, func(), error) {
	if !cfg.Audit.KafkaEnabled() {
		return audit.NewLogSink(log), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	return sink, sink.Close, nil
}
