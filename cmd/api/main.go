package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	nethttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/medifly/internal/adapters/geolocation"
	"github.com/samirrijal/medifly/internal/adapters/http"
	natsadapter "github.com/samirrijal/medifly/internal/adapters/nats"
	"github.com/samirrijal/medifly/internal/adapters/phonepe"
	"github.com/samirrijal/medifly/internal/adapters/postgres"
	"github.com/samirrijal/medifly/internal/adapters/valkey"
	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/core/ranking"
	"github.com/samirrijal/medifly/internal/core/usecases"
	"github.com/samirrijal/medifly/internal/pkg/config"
	"github.com/samirrijal/medifly/internal/pkg/crypto"
	"github.com/samirrijal/medifly/internal/pkg/logging"
	"github.com/samirrijal/medifly/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("medifly-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
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
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Drain()
	}

	cipher, err := crypto.NewLocationCipher(cfg.Location.Secret, cfg.Location.Salt)
	if err != nil {
		log.Fatalf("location cipher (set MEDIFLY_LOCATION_SECRET): %v", err)
	}

	// Outbound integrations
	httpClient := &nethttp.Client{Timeout: 10 * time.Second}
	geo := geolocation.NewProvider(
		geolocation.NewIPLocate(cfg.Geolocation.IPLocateAPIKey, cfg.Geolocation.IPLocateURL, cfg.Geolocation.IPLocateRate, httpClient),
		geolocation.NewNominatim(cfg.Geolocation.NominatimURL, cfg.Geolocation.NominatimAgent, cfg.Geolocation.NominatimRate, httpClient),
		cacheSvc,
	)
	gateway := phonepe.New(cfg.PhonePe, httpClient)

	// Repos
	pharmacyRepo := postgres.NewPharmacyRepo(db)
	medicineRepo := postgres.NewMedicineRepo(db)
	cartRepo := postgres.NewCartRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	locationRepo := postgres.NewUserLocationRepo(db)

	// Use cases
	ranker := ranking.New(cfg.Search)
	sim := drone.NewSimulator(cfg.Drone.Config, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d656469)))
	depot := domain.GeoPoint{Lat: cfg.Drone.DepotLat, Lon: cfg.Drone.DepotLon}

	orderSvc := usecases.NewOrderService(orderRepo, cartRepo, pharmacyRepo, publisher, sim, depot)
	deps := &http.Dependencies{
		Pharmacies:       usecases.NewPharmacyService(pharmacyRepo, cacheSvc, ranker),
		Medicines:        usecases.NewMedicineService(medicineRepo, cacheSvc, ranker),
		Carts:            usecases.NewCartService(cartRepo, medicineRepo),
		Orders:           orderSvc,
		Payments:         usecases.NewPaymentService(orderRepo, gateway, orderSvc),
		Locations:        usecases.NewLocationService(geo, locationRepo, cipher),
		NATS:             natsConn,
		DB:               db,
		Cache:            cache,
		RequestTimeout:   time.Duration(cfg.Server.RequestTimeout) * time.Second,
		TrustProxyHeader: cfg.Geolocation.TrustProxyHeader,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Medifly API",
		ProxyHeader:  proxyHeader(cfg.Geolocation.TrustProxyHeader),
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowOrigins, ","),
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func proxyHeader(trust bool) string {
	if trust {
		return fiber.HeaderXForwardedFor
	}
	return ""
}
