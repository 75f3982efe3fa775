package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const (
	defaultRadiusKm = 10.0
	maxRadiusKm     = 500.0
	maxQueryLen     = 200
)

// queryFloat parses a required float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NearbyPharmaciesHandler ranks active pharmacies around a point.
func NearbyPharmaciesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, okLat := queryFloat(c, "lat")
		lon, okLon := queryFloat(c, "lon")
		if !okLat || !okLon {
			return errBadRequest(c, "lat and lon are required")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat must be in [-90, 90] and lon in [-180, 180]")
		}
		radius := c.QueryFloat("radius_km", defaultRadiusKm)
		if radius < 0 || radius > maxRadiusKm {
			return errBadRequest(c, "radius_km must be between 0 and 500")
		}
		q := c.Query("q")
		if len(q) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		results, err := deps.Pharmacies.Nearby(c.UserContext(), domain.SearchQuery{
			Text:     q,
			Origin:   domain.GeoPoint{Lat: lat, Lon: lon},
			RadiusKm: radius,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(paginate(c, results, 20, 100))
	}
}

// GetPharmacyHandler returns a single pharmacy by ID.
func GetPharmacyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "pharmacy id is required")
		}
		p, err := deps.Pharmacies.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(p)
	}
}

// ListMedicinesHandler browses or searches the catalogue.
func ListMedicinesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if len(q) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		meds, err := deps.Medicines.List(c.UserContext(), strings.TrimSpace(c.Query("category")), q)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, meds, 50, 200))
	}
}

// MedicineCategoriesHandler returns the sorted distinct categories.
func MedicineCategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := deps.Medicines.Categories(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		if cats == nil {
			cats = []string{}
		}
		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(cats)
	}
}

// GetMedicineHandler returns a single medicine by ID.
func GetMedicineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := deps.Medicines.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(m)
	}
}

// CreateMedicineHandler adds a medicine to the catalogue.
func CreateMedicineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m domain.Medicine
		if err := c.BodyParser(&m); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Medicines.Create(c.UserContext(), &m); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}
