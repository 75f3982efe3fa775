package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/medifly/internal/adapters/nats"
	"github.com/samirrijal/medifly/internal/adapters/postgres"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/core/usecases"
	"github.com/samirrijal/medifly/internal/pkg/config"
	"github.com/samirrijal/medifly/internal/pkg/logging"
	"github.com/samirrijal/medifly/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("medifly-dronesim")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, telemetry will not be relayed", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	sim := drone.NewSimulator(cfg.Drone.Config, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x64726f6e)))
	svc := usecases.NewDroneService(postgres.NewOrderRepo(db), publisher, sim)

	ticker := time.NewTicker(cfg.Drone.TickInterval)
	defer ticker.Stop()

	slog.Info("drone simulator started", "interval", cfg.Drone.TickInterval.String())

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	tick(ctx, svc)

	for {
		select {
		case <-ticker.C:
			tick(ctx, svc)
		case sig := <-quit:
			slog.Info("shutting down drone simulator", "signal", sig.String())
			cancel()
			return
		}
	}
}

func tick(ctx context.Context, svc *usecases.DroneService) {
	res, err := svc.AdvanceAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "drone tick failed", "error", err)
		return
	}
	if res.Advanced > 0 || res.Failed > 0 {
		slog.InfoContext(ctx, "drone tick",
			"advanced", res.Advanced,
			"delivered", res.Delivered,
			"failed", res.Failed,
		)
	}
}
