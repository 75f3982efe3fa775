package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/medifly/internal/adapters/http"
	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ranking"
	"github.com/samirrijal/medifly/internal/core/usecases"
	"github.com/samirrijal/medifly/internal/pkg/crypto"
)

// ---- Mock repositories ----

type mockPharmacyRepo struct {
	listActiveFn func(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Pharmacy, error)
}

func (m *mockPharmacyRepo) Upsert(ctx context.Context, p *domain.Pharmacy) error        { return nil }
func (m *mockPharmacyRepo) UpsertBatch(ctx context.Context, p []domain.Pharmacy) error { return nil }
func (m *mockPharmacyRepo) GetByID(ctx context.Context, id string) (*domain.Pharmacy, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("pharmacy %s: %w", id, domain.ErrNotFound)
}
func (m *mockPharmacyRepo) ListActive(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, within)
	}
	return nil, nil
}

type mockMedicineRepo struct {
	meds []domain.Medicine
}

func (m *mockMedicineRepo) Create(ctx context.Context, med *domain.Medicine) error {
	m.meds = append(m.meds, *med)
	return nil
}
func (m *mockMedicineRepo) UpsertBatch(ctx context.Context, meds []domain.Medicine) error { return nil }
func (m *mockMedicineRepo) GetByID(ctx context.Context, id string) (*domain.Medicine, error) {
	for i := range m.meds {
		if m.meds[i].ID == id {
			med := m.meds[i]
			return &med, nil
		}
	}
	return nil, fmt.Errorf("medicine %s: %w", id, domain.ErrNotFound)
}
func (m *mockMedicineRepo) List(ctx context.Context, category string) ([]domain.Medicine, error) {
	var out []domain.Medicine
	for _, med := range m.meds {
		if category == "" || med.Category == category {
			out = append(out, med)
		}
	}
	return out, nil
}
func (m *mockMedicineRepo) Categories(ctx context.Context) ([]string, error) {
	return []string{"Allergy", "Pain Relief"}, nil
}
func (m *mockMedicineRepo) Delete(ctx context.Context, id string) error { return nil }

type mockCartRepo struct {
	items []domain.CartItem
}

func (m *mockCartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var out []domain.CartItem
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}
func (m *mockCartRepo) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			it := m.items[i]
			return &it, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockCartRepo) FindByUserAndMedicine(ctx context.Context, userID, medicineID string) (*domain.CartItem, error) {
	for i := range m.items {
		if m.items[i].UserID == userID && m.items[i].MedicineID == medicineID {
			it := m.items[i]
			return &it, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockCartRepo) Insert(ctx context.Context, item *domain.CartItem) error {
	m.items = append(m.items, *item)
	return nil
}
func (m *mockCartRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error { return nil }
func (m *mockCartRepo) Delete(ctx context.Context, id string) error                     { return nil }
func (m *mockCartRepo) DeleteByUser(ctx context.Context, userID string) error           { return nil }

type mockOrderRepo struct {
	orders map[string]*domain.Order
}

func (m *mockOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	m.orders[o.ID] = o
	return nil
}
func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}
func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}
func (m *mockOrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.orders[id].Status = status
	return nil
}
func (m *mockOrderRepo) UpdatePayment(ctx context.Context, id, paymentID string, status domain.PaymentStatus) error {
	return nil
}
func (m *mockOrderRepo) UpdateFlight(ctx context.Context, o *domain.Order) error { return nil }

// ---- Test helpers ----

var bangalore = domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

type mockLocationRepo struct {
	byUser map[string]*domain.UserLocation
}

func (m *mockLocationRepo) Upsert(ctx context.Context, loc *domain.UserLocation) error {
	m.byUser[loc.UserID] = loc
	return nil
}

func (m *mockLocationRepo) GetByUser(ctx context.Context, userID string) (*domain.UserLocation, error) {
	if loc, ok := m.byUser[userID]; ok {
		return loc, nil
	}
	return nil, fmt.Errorf("location for %s: %w", userID, domain.ErrNotFound)
}

type fixture struct {
	pharmacies *mockPharmacyRepo
	medicines  *mockMedicineRepo
	carts      *mockCartRepo
	orders     *mockOrderRepo
	locations  *mockLocationRepo
	cipher     *crypto.LocationCipher
}

func makeDeps(f *fixture) *handler.Dependencies {
	if f.pharmacies == nil {
		f.pharmacies = &mockPharmacyRepo{}
	}
	if f.medicines == nil {
		f.medicines = &mockMedicineRepo{}
	}
	if f.carts == nil {
		f.carts = &mockCartRepo{}
	}
	if f.orders == nil {
		f.orders = &mockOrderRepo{orders: map[string]*domain.Order{}}
	}
	ranker := ranking.New(ranking.DefaultConfig())
	sim := drone.NewSimulator(drone.DefaultConfig(), nil)
	orders := usecases.NewOrderService(f.orders, f.carts, f.pharmacies, nil, sim, bangalore)
	deps := &handler.Dependencies{
		Pharmacies: usecases.NewPharmacyService(f.pharmacies, nil, ranker),
		Medicines:  usecases.NewMedicineService(f.medicines, nil, ranker),
		Carts:      usecases.NewCartService(f.carts, f.medicines),
		Orders:     orders,
	}
	if f.locations != nil {
		deps.Locations = usecases.NewLocationService(nil, f.locations, f.cipher)
	}
	return deps
}

func do(t *testing.T, app *fiber.App, method, path, user string, body any) (int, []byte, map[string][]string) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(handler.HeaderUserID, user)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b, resp.Header
}

func errCode(t *testing.T, body []byte) string {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return apiErr.Code
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, body, _ := do(t, app, "GET", "/v1/health", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", out["status"])
	}
}

func TestReady_NoDatabase(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, _, _ := do(t, app, "GET", "/v1/ready", "", nil)
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
}

// ---- Pharmacies ----

func nearbyFixture() *fixture {
	return &fixture{pharmacies: &mockPharmacyRepo{
		listActiveFn: func(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error) {
			return []domain.Pharmacy{
				{ID: "far", Name: "Mysore Road Chemists", Active: true, Location: domain.GeoPoint{Lat: bangalore.Lat + 0.5, Lon: bangalore.Lon}},
				{ID: "near", Name: "MG Road Pharmacy", Active: true, Location: domain.GeoPoint{Lat: bangalore.Lat + 0.009, Lon: bangalore.Lon}},
			}, nil
		},
	}}
}

func TestNearbyPharmacies_Success(t *testing.T) {
	app := setupApp(makeDeps(nearbyFixture()))

	status, body, hdr := do(t, app, "GET", "/v1/pharmacies/nearby?lat=12.9716&lon=77.5946&radius_km=10", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result struct {
		Data       []domain.RankedResult `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 1 || len(result.Data) != 1 {
		t.Fatalf("expected 1 result, got total=%d len=%d", result.Pagination.Total, len(result.Data))
	}
	if result.Data[0].Pharmacy.ID != "near" {
		t.Errorf("expected near, got %s", result.Data[0].Pharmacy.ID)
	}
	if result.Data[0].Pharmacy.Rating != domain.DefaultPharmacyRating {
		t.Errorf("expected default rating, got %v", result.Data[0].Pharmacy.Rating)
	}
	if got := hdr["Cache-Control"]; len(got) == 0 || got[0] != "public, max-age=60" {
		t.Errorf("unexpected Cache-Control %v", got)
	}
}

func TestNearbyPharmacies_MissingParams(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, body, _ := do(t, app, "GET", "/v1/pharmacies/nearby", "", nil)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errCode(t, body); code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", code)
	}
}

func TestNearbyPharmacies_BadRadius(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	for _, q := range []string{"radius_km=-1", "radius_km=501"} {
		status, _, _ := do(t, app, "GET", "/v1/pharmacies/nearby?lat=12.97&lon=77.59&"+q, "", nil)
		if status != 400 {
			t.Errorf("%s: expected 400, got %d", q, status)
		}
	}
}

func TestNearbyPharmacies_LatitudeOutOfRange(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, _, _ := do(t, app, "GET", "/v1/pharmacies/nearby?lat=91&lon=77.59", "", nil)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestStoresAlias_IsDeprecated(t *testing.T) {
	app := setupApp(makeDeps(nearbyFixture()))

	status, _, hdr := do(t, app, "GET", "/v1/stores/nearby?lat=12.9716&lon=77.5946", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if got := hdr["Deprecation"]; len(got) == 0 || got[0] != "true" {
		t.Errorf("expected Deprecation header, got %v", got)
	}
	if len(hdr["Sunset"]) == 0 {
		t.Error("expected Sunset header")
	}
}

func TestGetPharmacy_NotFound(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, body, _ := do(t, app, "GET", "/v1/pharmacies/missing", "", nil)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if code := errCode(t, body); code != "not_found" {
		t.Errorf("expected not_found, got %s", code)
	}
}

// ---- Medicines ----

func catalogue() *mockMedicineRepo {
	return &mockMedicineRepo{meds: []domain.Medicine{
		{ID: "m1", Name: "Paracetamol 500mg", Category: "Pain Relief", Price: 30, InStock: true},
		{ID: "m2", Name: "Cetirizine 10mg", Category: "Allergy", Price: 45, InStock: true},
		{ID: "m3", Name: "Ibuprofen 400mg", Category: "Pain Relief", Price: 55, InStock: false},
	}}
}

func TestListMedicines_Browse(t *testing.T) {
	app := setupApp(makeDeps(&fixture{medicines: catalogue()}))

	status, body, _ := do(t, app, "GET", "/v1/medicines?category=Pain%20Relief", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Data []domain.Medicine `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != "m1" {
		t.Fatalf("expected only in-stock m1, got %+v", result.Data)
	}
}

func TestListMedicines_Search(t *testing.T) {
	app := setupApp(makeDeps(&fixture{medicines: catalogue()}))

	status, body, _ := do(t, app, "GET", "/v1/medicines?q=paracetamol", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Data []domain.Medicine `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data) == 0 || result.Data[0].ID != "m1" {
		t.Fatalf("expected Paracetamol first, got %+v", result.Data)
	}
}

func TestMedicineCategories(t *testing.T) {
	app := setupApp(makeDeps(&fixture{medicines: catalogue()}))

	status, body, _ := do(t, app, "GET", "/v1/medicines/categories", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var cats []string
	if err := json.Unmarshal(body, &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0] != "Allergy" {
		t.Errorf("unexpected categories %v", cats)
	}
}

func TestCreateMedicine_RequiresUser(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, body, _ := do(t, app, "POST", "/v1/medicines", "", map[string]any{"name": "Aspirin", "category": "Pain Relief"})
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if code := errCode(t, body); code != "unauthorized" {
		t.Errorf("expected unauthorized, got %s", code)
	}
}

func TestCreateMedicine_Success(t *testing.T) {
	f := &fixture{}
	app := setupApp(makeDeps(f))

	status, body, _ := do(t, app, "POST", "/v1/medicines", "admin", map[string]any{
		"name": "Aspirin", "category": "Pain Relief", "price": 12.5, "in_stock": true,
	})
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	if len(f.medicines.meds) != 1 || f.medicines.meds[0].ID == "" {
		t.Fatalf("expected stored medicine with id, got %+v", f.medicines.meds)
	}
}

func TestCreateMedicine_Invalid(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, _, _ := do(t, app, "POST", "/v1/medicines", "admin", map[string]any{"name": "Aspirin"})
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

// ---- Cart ----

func TestAddToCart_DefaultsQuantity(t *testing.T) {
	f := &fixture{medicines: catalogue()}
	app := setupApp(makeDeps(f))

	status, body, _ := do(t, app, "POST", "/v1/cart", "u1", map[string]any{"medicine_id": "m1"})
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var item domain.CartItem
	if err := json.Unmarshal(body, &item); err != nil {
		t.Fatal(err)
	}
	if item.Quantity != 1 || item.Medicine == nil {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestAddToCart_OutOfStock(t *testing.T) {
	app := setupApp(makeDeps(&fixture{medicines: catalogue()}))

	status, body, _ := do(t, app, "POST", "/v1/cart", "u1", map[string]any{"medicine_id": "m3", "quantity": 2})
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
	if code := errCode(t, body); code != "conflict" {
		t.Errorf("expected conflict, got %s", code)
	}
}

func TestListCart_EmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, body, hdr := do(t, app, "GET", "/v1/cart", "u1", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("expected [], got %s", body)
	}
	if got := hdr["Cache-Control"]; len(got) == 0 || got[0] != "private, no-store" {
		t.Errorf("unexpected Cache-Control %v", got)
	}
}

// ---- Orders ----

func orderFixture(status domain.OrderStatus) *fixture {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &fixture{orders: &mockOrderRepo{orders: map[string]*domain.Order{
		"o1": {ID: "o1", UserID: "u1", Status: status, DeliveryType: domain.DeliveryPickup, CreatedAt: now, UpdatedAt: now},
	}}}
}

func TestGetOrder_OtherUserIsNotFound(t *testing.T) {
	app := setupApp(makeDeps(orderFixture(domain.OrderPending)))

	status, _, _ := do(t, app, "GET", "/v1/orders/o1", "u2", nil)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestGetOrder_Owner(t *testing.T) {
	app := setupApp(makeDeps(orderFixture(domain.OrderPending)))

	status, body, _ := do(t, app, "GET", "/v1/orders/o1", "u1", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var o domain.Order
	if err := json.Unmarshal(body, &o); err != nil {
		t.Fatal(err)
	}
	if o.ID != "o1" || o.Status != domain.OrderPending {
		t.Errorf("unexpected order %+v", o)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	f := orderFixture(domain.OrderPending)
	app := setupApp(makeDeps(f))

	status, body, _ := do(t, app, "PATCH", "/v1/orders/o1/status", "u1", map[string]any{"status": "cancelled"})
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if f.orders.orders["o1"].Status != domain.OrderCancelled {
		t.Errorf("expected cancelled, got %s", f.orders.orders["o1"].Status)
	}
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	app := setupApp(makeDeps(orderFixture(domain.OrderDelivered)))

	status, body, _ := do(t, app, "PATCH", "/v1/orders/o1/status", "u1", map[string]any{"status": "pending"})
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
	if code := errCode(t, body); code != "conflict" {
		t.Errorf("expected conflict, got %s", code)
	}
}

func TestUpdateOrderStatus_CannotConfirmUnpaidOrder(t *testing.T) {
	f := orderFixture(domain.OrderPending)
	app := setupApp(makeDeps(f))

	status, body, _ := do(t, app, "PATCH", "/v1/orders/o1/status", "u1", map[string]any{"status": "confirmed"})
	if status != 409 {
		t.Fatalf("expected 409, got %d: %s", status, body)
	}
	if f.orders.orders["o1"].Status != domain.OrderPending {
		t.Errorf("order moved to %s", f.orders.orders["o1"].Status)
	}
}

func TestCheckout_PickupNeedsPharmacy(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, _, _ := do(t, app, "POST", "/v1/orders", "u1", map[string]any{"delivery_type": "pickup", "phone": "9876543210"})
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

// ---- WebSocket ----

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(&fixture{}))

	status, _, _ := do(t, app, "GET", "/ws?order_id=o1", "u1", nil)
	if status != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", status)
	}
}

func TestWebSocket_IgnoresUserIDQuery(t *testing.T) {
	f := orderFixture(domain.OrderInFlight)
	app := setupApp(makeDeps(f))

	req := httptest.NewRequest("GET", "/ws?order_id=o1&user_id=u1", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a query-string identity, got %d", resp.StatusCode)
	}
}

// ---- Location ----

func locationFixture(t *testing.T) *fixture {
	t.Helper()
	cipher, err := crypto.NewLocationCipher("test-secret", "medifly")
	if err != nil {
		t.Fatal(err)
	}
	enc, err := cipher.Encrypt("Bengaluru, Karnataka, India")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		cipher: cipher,
		locations: &mockLocationRepo{byUser: map[string]*domain.UserLocation{
			"u1": {UserID: "u1", EncryptedLocation: enc, TranscriptedLocation: "Ben***, Karnataka, India", Location: bangalore},
		}},
	}
}

func TestRevealLocation(t *testing.T) {
	app := setupApp(makeDeps(locationFixture(t)))

	status, body, headers := do(t, app, "GET", "/v1/location/full", "u1", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var out struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.Location != "Bengaluru, Karnataka, India" {
		t.Errorf("unexpected location %q", out.Location)
	}
	if cc := headers["Cache-Control"]; len(cc) == 0 || cc[0] != "private, no-store" {
		t.Errorf("expected private, no-store, got %v", cc)
	}
}

func TestRevealLocation_OwnerOnly(t *testing.T) {
	app := setupApp(makeDeps(locationFixture(t)))

	if status, _, _ := do(t, app, "GET", "/v1/location/full", "", nil); status != 401 {
		t.Errorf("expected 401 without user, got %d", status)
	}
	if status, _, _ := do(t, app, "GET", "/v1/location/full", "u2", nil); status != 404 {
		t.Errorf("expected 404 for another user, got %d", status)
	}
}

// ---- GraphQL ----

func TestGraphQL_MedicineCategories(t *testing.T) {
	app := setupApp(makeDeps(&fixture{medicines: catalogue()}))

	status, body, _ := do(t, app, "POST", "/graphql", "", map[string]any{"query": "{ medicineCategories }"})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var out struct {
		Data struct {
			MedicineCategories []string `json:"medicineCategories"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Data.MedicineCategories) != 2 {
		t.Errorf("unexpected categories %s", body)
	}
}

func TestGraphQL_OrdersNeedUser(t *testing.T) {
	app := setupApp(makeDeps(orderFixture(domain.OrderPending)))

	_, body, _ := do(t, app, "POST", "/graphql", "", map[string]any{"query": "{ orders { id } }"})
	var out struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Errors) == 0 {
		t.Fatalf("expected an error, got %s", body)
	}

	_, body, _ = do(t, app, "POST", "/graphql", "u1", map[string]any{"query": "{ orders { id status } }"})
	var ok struct {
		Data struct {
			Orders []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"orders"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &ok); err != nil {
		t.Fatal(err)
	}
	if len(ok.Data.Orders) != 1 || ok.Data.Orders[0].Status != "pending" {
		t.Errorf("unexpected orders %s", body)
	}
}

// ---- Docs ----

func TestDocs_ServeSpecAsJSON(t *testing.T) {
	deps := makeDeps(&fixture{})
	deps.SpecPath = findOpenAPISpec(t)
	app := setupApp(deps)

	status, body, _ := do(t, app, "GET", "/docs/openapi.json", "", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.OpenAPI == "" || doc.Info.Title != "Medifly API" {
		t.Errorf("unexpected document header %+v", doc)
	}
}

func TestDocs_MissingSpec(t *testing.T) {
	deps := makeDeps(&fixture{})
	deps.SpecPath = "does/not/exist.yaml"
	app := setupApp(deps)

	status, _, _ := do(t, app, "GET", "/docs/openapi.yaml", "", nil)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}
