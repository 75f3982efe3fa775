package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/medifly/internal/adapters/nats"
	"github.com/samirrijal/medifly/internal/adapters/postgres"
	"github.com/samirrijal/medifly/internal/adapters/temporal"
	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/core/usecases"
	"github.com/samirrijal/medifly/internal/pkg/config"
	"github.com/samirrijal/medifly/internal/pkg/logging"
	"github.com/samirrijal/medifly/internal/workflows"
)

func main() {
	cfg, err := config.Load("medifly-fulfiller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats publisher unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	sim := drone.NewSimulator(cfg.Drone.Config, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x66756c66)))
	orders := usecases.NewOrderService(
		postgres.NewOrderRepo(db),
		postgres.NewCartRepo(db),
		postgres.NewPharmacyRepo(db),
		publisher,
		sim,
		domain.GeoPoint{Lat: cfg.Drone.DepotLat, Lon: cfg.Drone.DepotLon},
	)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.FulfillmentWorkflow)
	w.RegisterActivity(&workflows.FulfillmentActivities{Orders: orders})

	// Confirmed orders start a workflow each
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	starter := temporal.NewStarter(c, cfg.Temporal.TaskQueue)
	if err := sub.SubscribeOrderConfirmed(ctx, starter.StartFulfillment); err != nil {
		log.Fatalf("subscribe confirmed orders: %v", err)
	}
	if err := sub.SubscribeGeofenceEvents(ctx, func(ctx context.Context, orderID string, e *domain.GeofenceEvent) error {
		slog.InfoContext(ctx, "drone geofence crossing",
			"order_id", orderID,
			"zone", e.Zone,
			"event", e.EventType,
			"at", e.Timestamp,
		)
		return nil
	}); err != nil {
		log.Fatalf("subscribe geofence events: %v", err)
	}

	slog.Info("fulfiller worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
