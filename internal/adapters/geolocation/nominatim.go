package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "Medifly-App"
	unknownPart         = "Unknown"
)

// Nominatim reverse-geocodes coordinates with OpenStreetMap Nominatim.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim creates a Nominatim client. The public instance allows one
// request per second.
func NewNominatim(baseURL, userAgent string, ratePerSecond float64, httpClient *http.Client) *Nominatim {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultNominatimURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    newLimiter(ratePerSecond),
	}
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse resolves p to a place. Missing parts come back as "Unknown".
func (c *Nominatim) Reverse(ctx context.Context, p domain.GeoPoint) (*domain.Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("nominatim decode: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("nominatim: %s", body.Error)
	}

	a := body.Address
	return &domain.Place{
		City:     firstNonEmpty(a.City, a.Town, a.Village),
		Region:   firstNonEmpty(a.State, a.Region),
		Country:  firstNonEmpty(a.Country),
		Location: p,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return unknownPart
}
