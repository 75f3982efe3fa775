package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// --- Mock PharmacyRepository ---

type mockPharmacyRepo struct {
	getByIDFn    func(ctx context.Context, id string) (*domain.Pharmacy, error)
	listActiveFn func(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error)
}

func (m *mockPharmacyRepo) Upsert(ctx context.Context, p *domain.Pharmacy) error                { return nil }
func (m *mockPharmacyRepo) UpsertBatch(ctx context.Context, pharmacies []domain.Pharmacy) error { return nil }

func (m *mockPharmacyRepo) GetByID(ctx context.Context, id string) (*domain.Pharmacy, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPharmacyRepo) ListActive(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, within)
	}
	return nil, nil
}

// --- Mock MedicineRepository ---

type mockMedicineRepo struct {
	createFn     func(ctx context.Context, m *domain.Medicine) error
	getByIDFn    func(ctx context.Context, id string) (*domain.Medicine, error)
	listFn       func(ctx context.Context, category string) ([]domain.Medicine, error)
	categoriesFn func(ctx context.Context) ([]string, error)
}

func (m *mockMedicineRepo) Create(ctx context.Context, med *domain.Medicine) error {
	if m.createFn != nil {
		return m.createFn(ctx, med)
	}
	return nil
}

func (m *mockMedicineRepo) UpsertBatch(ctx context.Context, medicines []domain.Medicine) error {
	return nil
}

func (m *mockMedicineRepo) GetByID(ctx context.Context, id string) (*domain.Medicine, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMedicineRepo) List(ctx context.Context, category string) ([]domain.Medicine, error) {
	if m.listFn != nil {
		return m.listFn(ctx, category)
	}
	return nil, nil
}

func (m *mockMedicineRepo) Categories(ctx context.Context) ([]string, error) {
	if m.categoriesFn != nil {
		return m.categoriesFn(ctx)
	}
	return nil, nil
}

func (m *mockMedicineRepo) Delete(ctx context.Context, id string) error { return nil }

// --- In-memory CartRepository ---

type memCartRepo struct {
	items     map[string]*domain.CartItem
	medicines map[string]*domain.Medicine
}

func newMemCartRepo(meds ...domain.Medicine) *memCartRepo {
	r := &memCartRepo{items: map[string]*domain.CartItem{}, medicines: map[string]*domain.Medicine{}}
	for i := range meds {
		r.medicines[meds[i].ID] = &meds[i]
	}
	return r
}

func (r *memCartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var out []domain.CartItem
	for _, it := range r.items {
		if it.UserID == userID {
			cp := *it
			cp.Medicine = r.medicines[it.MedicineID]
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *memCartRepo) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *memCartRepo) FindByUserAndMedicine(ctx context.Context, userID, medicineID string) (*domain.CartItem, error) {
	for _, it := range r.items {
		if it.UserID == userID && it.MedicineID == medicineID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCartRepo) Insert(ctx context.Context, item *domain.CartItem) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memCartRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	it, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.Quantity = quantity
	return nil
}

func (r *memCartRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memCartRepo) DeleteByUser(ctx context.Context, userID string) error {
	for id, it := range r.items {
		if it.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

// --- In-memory OrderRepository ---

type memOrderRepo struct {
	orders map[string]*domain.Order
}

func newMemOrderRepo(orders ...domain.Order) *memOrderRepo {
	r := &memOrderRepo{orders: map[string]*domain.Order{}}
	for i := range orders {
		o := orders[i]
		r.orders[o.ID] = &o
	}
	return r
}

func (r *memOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *memOrderRepo) UpdatePayment(ctx context.Context, id, paymentID string, status domain.PaymentStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.PaymentID = paymentID
	o.PaymentStatus = status
	return nil
}

func (r *memOrderRepo) UpdateFlight(ctx context.Context, o *domain.Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Drone = o.Drone
	stored.GeofenceEvents = append([]domain.GeofenceEvent(nil), o.GeofenceEvents...)
	stored.EstimatedDeliveryAt = o.EstimatedDeliveryAt
	return nil
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu        sync.Mutex
	statuses  []domain.OrderStatus
	telemetry int
	geofences []domain.GeofenceEvent
}

func (p *recordingPublisher) PublishDroneTelemetry(ctx context.Context, orderID string, t *domain.DroneTelemetry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.telemetry++
	return nil
}

func (p *recordingPublisher) PublishGeofenceEvent(ctx context.Context, orderID string, e *domain.GeofenceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.geofences = append(p.geofences, *e)
	return nil
}

func (p *recordingPublisher) PublishOrderStatus(ctx context.Context, o *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, o.Status)
	return nil
}

// --- In-memory CacheService ---

type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}
