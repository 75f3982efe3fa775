package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const pharmacyColumns = `
	id, name, address, COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip_code, ''), phone,
	ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon,
	active, COALESCE(rating, 0), COALESCE(open_hours, ''), created_at`

const upsertPharmacy = `
	INSERT INTO pharmacies (id, name, address, city, state, zip_code, phone, location, active, rating, open_hours)
	VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7,
	        ST_SetSRID(ST_MakePoint($8, $9), 4326)::geography, $10, NULLIF($11::double precision, 0), NULLIF($12, ''))
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, address = EXCLUDED.address, city = EXCLUDED.city,
	    state = EXCLUDED.state, zip_code = EXCLUDED.zip_code, phone = EXCLUDED.phone,
	    location = EXCLUDED.location, active = EXCLUDED.active,
	    rating = EXCLUDED.rating, open_hours = EXCLUDED.open_hours`

// PharmacyRepo implements ports.PharmacyRepository with pgx.
type PharmacyRepo struct {
	db *DB
}

// NewPharmacyRepo creates a new PharmacyRepo.
func NewPharmacyRepo(db *DB) *PharmacyRepo {
	return &PharmacyRepo{db: db}
}

func pharmacyArgs(p *domain.Pharmacy) []any {
	return []any{
		p.ID, p.Name, p.Address, p.City, p.State, p.ZipCode, p.Phone,
		p.Location.Lon, p.Location.Lat, p.Active, p.Rating, p.OpenHours,
	}
}

// Upsert inserts or updates a single pharmacy.
func (r *PharmacyRepo) Upsert(ctx context.Context, p *domain.Pharmacy) error {
	_, err := r.db.Pool.Exec(ctx, upsertPharmacy, pharmacyArgs(p)...)
	return err
}

// UpsertBatch inserts many pharmacies using pgx.Batch.
func (r *PharmacyRepo) UpsertBatch(ctx context.Context, pharmacies []domain.Pharmacy) error {
	batch := &pgx.Batch{}
	for i := range pharmacies {
		batch.Queue(upsertPharmacy, pharmacyArgs(&pharmacies[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range pharmacies {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

func scanPharmacy(row pgx.Row) (domain.Pharmacy, error) {
	var p domain.Pharmacy
	err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.City, &p.State, &p.ZipCode, &p.Phone,
		&p.Location.Lat, &p.Location.Lon,
		&p.Active, &p.Rating, &p.OpenHours, &p.CreatedAt,
	)
	return p, err
}

// GetByID returns a pharmacy by id.
func (r *PharmacyRepo) GetByID(ctx context.Context, id string) (*domain.Pharmacy, error) {
	p, err := scanPharmacy(r.db.Pool.QueryRow(ctx, `SELECT `+pharmacyColumns+` FROM pharmacies WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "pharmacy", id)
	}
	return &p, nil
}

// ListActive returns active pharmacies in insertion order. A non-nil box
// restricts the scan with the GiST index; exact distance is left to the caller.
func (r *PharmacyRepo) ListActive(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error) {
	query := `SELECT ` + pharmacyColumns + ` FROM pharmacies WHERE active`
	var args []any
	if within != nil {
		query += ` AND location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)`
		args = append(args, within.MinLon, within.MinLat, within.MaxLon, within.MaxLat)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Pharmacy
	for rows.Next() {
		p, err := scanPharmacy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
