package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/medifly/internal/adapters/geolocation"
	"github.com/samirrijal/medifly/internal/core/domain"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestIPLocateLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"8.8.8.8","city":"Mountain View","subdivision":"California","country":"United States","latitude":37.386,"longitude":-122.0838}`))
	}))
	defer srv.Close()

	c := geolocation.NewIPLocate("secret", srv.URL, 0, srv.Client())
	place, err := c.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "Mountain View", place.City)
	assert.Equal(t, "California", place.Region)
	assert.Equal(t, "United States", place.Country)
	assert.InDelta(t, 37.386, place.Location.Lat, 1e-9)
	assert.InDelta(t, -122.0838, place.Location.Lon, 1e-9)
	assert.Equal(t, "8.8.8.8", place.IP)
}

func TestIPLocateRequiresKey(t *testing.T) {
	c := geolocation.NewIPLocate("", "http://127.0.0.1:1", 0, nil)
	_, err := c.Lookup(context.Background(), "8.8.8.8")
	assert.Error(t, err)
}

func TestIPLocateMissingCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"10.0.0.1","city":null}`))
	}))
	defer srv.Close()

	c := geolocation.NewIPLocate("k", srv.URL, 0, srv.Client())
	_, err := c.Lookup(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}

func TestIPLocateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := geolocation.NewIPLocate("k", srv.URL, 0, srv.Client())
	_, err := c.Lookup(context.Background(), "1.1.1.1")
	assert.ErrorContains(t, err, "429")
}

func TestNominatimReverseFallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "12.9716", r.URL.Query().Get("lat"))
		assert.Equal(t, "Medifly-App", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"address":{"town":"Whitefield","country":"India"}}`))
	}))
	defer srv.Close()

	c := geolocation.NewNominatim(srv.URL, "", 0, srv.Client())
	place, err := c.Reverse(context.Background(), domain.GeoPoint{Lat: 12.9716, Lon: 77.5946})
	require.NoError(t, err)
	assert.Equal(t, "Whitefield", place.City)
	assert.Equal(t, "Unknown", place.Region)
	assert.Equal(t, "India", place.Country)
}

func TestNominatimErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	c := geolocation.NewNominatim(srv.URL, "", 0, srv.Client())
	_, err := c.Reverse(context.Background(), domain.GeoPoint{Lat: 0, Lon: 0})
	assert.ErrorContains(t, err, "Unable to geocode")
}

func TestProviderCachesReverseLookups(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"address":{"city":"Bengaluru","state":"Karnataka","country":"India"}}`))
	}))
	defer srv.Close()

	cache := &memCache{data: map[string][]byte{}}
	p := geolocation.NewProvider(nil, geolocation.NewNominatim(srv.URL, "", 0, srv.Client()), cache)
	pt := domain.GeoPoint{Lat: 12.97161, Lon: 77.59462}

	first, err := p.ReverseGeocode(context.Background(), pt)
	require.NoError(t, err)
	second, err := p.ReverseGeocode(context.Background(), pt)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.City, second.City)
	assert.Equal(t, "Karnataka", second.Region)
	assert.Equal(t, pt, second.Location)
}
