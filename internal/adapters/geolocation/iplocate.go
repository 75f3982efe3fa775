package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const (
	defaultIPLocateURL = "https://iplocate.io/api/lookup"
	defaultHTTPTimeout = 8 * time.Second
)

// IPLocate resolves IP addresses with the iplocate.io API.
type IPLocate struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewIPLocate creates an iplocate client. An empty baseURL uses the public API.
// ratePerSecond <= 0 disables client-side throttling.
func NewIPLocate(apiKey, baseURL string, ratePerSecond float64, httpClient *http.Client) *IPLocate {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultIPLocateURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &IPLocate{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    newLimiter(ratePerSecond),
	}
}

type ipLocateResponse struct {
	IP          string   `json:"ip"`
	City        string   `json:"city"`
	Subdivision string   `json:"subdivision"`
	Region      string   `json:"region"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Lookup resolves ip to a place. An empty ip looks up the caller's own address.
func (c *IPLocate) Lookup(ctx context.Context, ip string) (*domain.Place, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("iplocate: api key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/" + url.PathEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?apikey="+url.QueryEscape(c.apiKey), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iplocate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("iplocate returned status %d", resp.StatusCode)
	}

	var body ipLocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("iplocate decode: %w", err)
	}
	if body.Latitude == nil || body.Longitude == nil {
		return nil, fmt.Errorf("iplocate: no coordinates for %q", ip)
	}

	region := body.Subdivision
	if region == "" {
		region = body.Region
	}
	return &domain.Place{
		City:     body.City,
		Region:   region,
		Country:  body.Country,
		Location: domain.GeoPoint{Lat: *body.Latitude, Lon: *body.Longitude},
		IP:       body.IP,
	}, nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
