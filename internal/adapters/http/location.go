package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/medifly/internal/core/domain"
)

type ipLocationRequest struct {
	IP string `json:"ip"`
}

type gpsLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// DetectIPLocationHandler stores the caller's location resolved from an IP.
// Without an explicit ip the client address is used.
func DetectIPLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ipLocationRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}
		ip := strings.TrimSpace(req.IP)
		if ip == "" {
			ip = clientIP(c, deps.TrustProxyHeader)
		}
		loc, err := deps.Locations.DetectFromIP(c.UserContext(), userID(c), ip)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(loc)
	}
}

// DetectGPSLocationHandler stores the caller's location from device coordinates.
func DetectGPSLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req gpsLocationRequest
		if err := c.BodyParser(&req); err != nil || req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}
		loc, err := deps.Locations.DetectFromGPS(c.UserContext(), userID(c), domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(loc)
	}
}

// CurrentLocationHandler returns the caller's stored, obfuscated location.
func CurrentLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := deps.Locations.Current(c.UserContext(), userID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "private, no-store")
		return c.JSON(loc)
	}
}

// RevealLocationHandler returns the caller's full decrypted location.
func RevealLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		full, err := deps.Locations.Reveal(c.UserContext(), userID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "private, no-store")
		return c.JSON(fiber.Map{"location": full})
	}
}

func clientIP(c *fiber.Ctx, trustProxy bool) string {
	if trustProxy {
		if ips := c.IPs(); len(ips) > 0 {
			return ips[0]
		}
	}
	return c.IP()
}
