package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/samirrijal/medifly/internal/adapters/postgres"
	"github.com/samirrijal/medifly/internal/pkg/config"
	"github.com/samirrijal/medifly/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("medifly-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Load catalogue
	path := "configs/catalogue.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open catalogue: %v", err)
	}
	pharmacies, medicines, err := parseCatalogue(f)
	f.Close()
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}

	pharmacyRepo := postgres.NewPharmacyRepo(db)
	medicineRepo := postgres.NewMedicineRepo(db)

	if err := pharmacyRepo.UpsertBatch(ctx, pharmacies); err != nil {
		log.Fatalf("upsert pharmacies: %v", err)
	}
	if err := medicineRepo.UpsertBatch(ctx, medicines); err != nil {
		log.Fatalf("upsert medicines: %v", err)
	}
	slog.Info("catalogue loaded", "source", path, "pharmacies", len(pharmacies), "medicines", len(medicines))

	// Remove duplicate medicines by name, keeping the oldest
	groups, err := medicineRepo.FindDuplicateNames(ctx)
	if err != nil {
		log.Fatalf("find duplicates: %v", err)
	}
	removed := 0
	for _, g := range groups {
		for _, id := range g.IDs[1:] {
			if err := medicineRepo.Delete(ctx, id); err != nil {
				slog.Error("delete duplicate medicine", "name", g.Name, "id", id, "error", err)
				continue
			}
			removed++
		}
		slog.Info("deduplicated medicine", "name", g.Name, "kept", g.IDs[0], "removed", len(g.IDs)-1)
	}
	slog.Info("seed complete", "duplicate_groups", len(groups), "removed", removed)
}
