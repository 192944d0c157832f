// Command server runs the scangate HTTP service: it wires the student
// directory, the attendance store, the per-device scan sessions, and the
// audit trail, then serves the scan API until signalled to stop.
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
	"time"

	"golang.org/x/sync/errgroup"

	"scangate/internal/attendance/handler"
	"scangate/internal/attendance/metrics"
	"scangate/internal/attendance/ports"
	"scangate/internal/attendance/recorder"
	"scangate/internal/attendance/resolver"
	"scangate/internal/attendance/scan"
	"scangate/internal/attendance/schedule"
	recordstore "scangate/internal/attendance/store/record"
	studentstore "scangate/internal/attendance/store/student"
	"scangate/internal/audit"
	auditkafka "scangate/internal/audit/store/kafka"
	auditmemory "scangate/internal/audit/store/memory"
	httpapi "scangate/internal/http"
	"scangate/internal/jwtdevice"
	"scangate/internal/platform/config"
	"scangate/internal/platform/httpserver"
	"scangate/internal/platform/logger"
	"scangate/internal/platform/postgres"
	platformredis "scangate/internal/platform/redis"
	"scangate/pkg/clock"
	id "scangate/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("scangate exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	policy := schedule.NewPolicy(loc)
	clk := clock.NewSystem()
	health := make(map[string]httpapi.HealthCheck)

	var directory studentstore.Directory
	var records ports.AttendanceStore
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		directory = studentstore.NewPostgresDirectory(db)
		records = recordstore.NewPostgres(db, loc)
		health["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		memDirectory := studentstore.NewInMemoryDirectory()
		if cfg.SeedDemoData {
			seeded := studentstore.SeedDemoStudents(memDirectory)
			log.Info("seeded demo students", "count", len(seeded))
		}
		directory = memDirectory
		records = recordstore.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if redisClient, err := platformredis.New(ctx, cfg.Redis); err != nil {
		return err
	} else if redisClient != nil {
		defer redisClient.Close()
		directory = studentstore.NewCachedDirectory(directory, redisClient.Client, cfg.StudentCacheTTL, log)
		health["redis"] = redisClient.Health
		log.Info("student directory cache enabled")
	}

	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := auditkafka.New(ctx, cfg.KafkaBrokers,
			auditkafka.WithTopic(cfg.AuditTopic),
			auditkafka.WithLogger(log),
		)
		if err != nil {
			return err
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("audit trail shipping to kafka", "topic", cfg.AuditTopic)
	}
	publisher := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithLogger(log),
	)
	defer publisher.Close()

	scanMetrics := metrics.New()
	tokens := jwtdevice.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	sessions := scan.NewManager(func(deviceID id.DeviceID) (*scan.Session, error) {
		rec, err := recorder.New(records,
			recorder.WithLogger(log),
			recorder.WithMetrics(scanMetrics),
		)
		if err != nil {
			return nil, err
		}
		return scan.NewSession(
			deviceID,
			resolver.New(directory, records, policy),
			rec,
			policy,
			scan.WithClock(clk),
			scan.WithLogger(log),
			scan.WithMetrics(scanMetrics),
			scan.WithAudit(audit.NewScanEvents(publisher)),
			scan.WithTimeouts(cfg.ResolveTimeout, cfg.WriteTimeout),
		)
	})

	router := httpapi.New(httpapi.Deps{
		Scan:      handler.New(sessions, records, directory, policy, clk, log),
		Validator: tokens,
		Clock:     clk,
		Logger:    log,
		Health:    health,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("scangate listening", "addr", cfg.Addr, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
