package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// seedNamespace keeps generated ids stable across runs.
var seedNamespace = uuid.MustParse("6f1c3e52-8a4b-4c1e-9d2a-5b7e0c9f4a11")

type catalogue struct {
	Pharmacies []pharmacyEntry `json:"pharmacies"`
	Medicines  []medicineEntry `json:"medicines"`
}

type pharmacyEntry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Phone     string  `json:"phone"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Active    *bool   `json:"active"`
	Rating    float64 `json:"rating"`
	OpenHours string  `json:"open_hours"`
}

type medicineEntry struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Category             string  `json:"category"`
	Price                float64 `json:"price"`
	ImageURL             string  `json:"image_url"`
	InStock              *bool   `json:"in_stock"`
	RequiresPrescription bool    `json:"requires_prescription"`
	Manufacturer         string  `json:"manufacturer"`
	Dosage               string  `json:"dosage"`
	Quantity             *int    `json:"quantity"`
}

func stableID(kind, id, name string) string {
	if id != "" {
		return id
	}
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.ToLower(name))).String()
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// parseCatalogue decodes and validates a catalogue file. Missing ids are
// derived from the name, and active and in_stock default to true.
func parseCatalogue(r io.Reader) ([]domain.Pharmacy, []domain.Medicine, error) {
	var c catalogue
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, nil, fmt.Errorf("decode catalogue: %w", err)
	}

	pharmacies := make([]domain.Pharmacy, 0, len(c.Pharmacies))
	for i, e := range c.Pharmacies {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("pharmacy #%d: name is required", i)
		}
		if e.Lat < -90 || e.Lat > 90 || e.Lon < -180 || e.Lon > 180 {
			return nil, nil, fmt.Errorf("pharmacy %q: coordinates out of range", name)
		}
		p := domain.Pharmacy{
			ID:        stableID("pharmacy", e.ID, name),
			Name:      name,
			Address:   e.Address,
			City:      e.City,
			State:     e.State,
			ZipCode:   e.ZipCode,
			Phone:     e.Phone,
			Location:  domain.GeoPoint{Lat: e.Lat, Lon: e.Lon},
			Active:    boolOr(e.Active, true),
			Rating:    e.Rating,
			OpenHours: e.OpenHours,
		}
		p.ApplyDefaults()
		pharmacies = append(pharmacies, p)
	}

	medicines := make([]domain.Medicine, 0, len(c.Medicines))
	for i, e := range c.Medicines {
		name := strings.TrimSpace(e.Name)
		if name == "" || strings.TrimSpace(e.Category) == "" {
			return nil, nil, fmt.Errorf("medicine #%d: name and category are required", i)
		}
		if e.Price < 0 {
			return nil, nil, fmt.Errorf("medicine %q: price must be non-negative", name)
		}
		medicines = append(medicines, domain.Medicine{
			ID:                   stableID("medicine", e.ID, name),
			Name:                 name,
			Description:          e.Description,
			Category:             strings.TrimSpace(e.Category),
			Price:                e.Price,
			ImageURL:             e.ImageURL,
			InStock:              boolOr(e.InStock, true),
			RequiresPrescription: e.RequiresPrescription,
			Manufacturer:         e.Manufacturer,
			Dosage:               e.Dosage,
			Quantity:             e.Quantity,
		})
	}

	return pharmacies, medicines, nil
}
