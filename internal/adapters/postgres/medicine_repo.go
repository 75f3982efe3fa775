package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const medicineColumns = `
	id, name, description, category, price, COALESCE(image_url, ''), in_stock,
	requires_prescription, COALESCE(manufacturer, ''), COALESCE(dosage, ''), quantity, created_at`

const upsertMedicine = `
	INSERT INTO medicines (id, name, description, category, price, image_url, in_stock,
	                       requires_prescription, manufacturer, dosage, quantity)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, description = EXCLUDED.description, category = EXCLUDED.category,
	    price = EXCLUDED.price, image_url = EXCLUDED.image_url, in_stock = EXCLUDED.in_stock,
	    requires_prescription = EXCLUDED.requires_prescription,
	    manufacturer = EXCLUDED.manufacturer, dosage = EXCLUDED.dosage, quantity = EXCLUDED.quantity`

// MedicineRepo implements ports.MedicineRepository with pgx.
type MedicineRepo struct {
	db *DB
}

// NewMedicineRepo creates a new MedicineRepo.
func NewMedicineRepo(db *DB) *MedicineRepo {
	return &MedicineRepo{db: db}
}

func medicineArgs(m *domain.Medicine) []any {
	return []any{
		m.ID, m.Name, m.Description, m.Category, m.Price, m.ImageURL, m.InStock,
		m.RequiresPrescription, m.Manufacturer, m.Dosage, m.Quantity,
	}
}

func scanMedicine(row pgx.Row) (domain.Medicine, error) {
	var m domain.Medicine
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.Category, &m.Price, &m.ImageURL, &m.InStock,
		&m.RequiresPrescription, &m.Manufacturer, &m.Dosage, &m.Quantity, &m.CreatedAt,
	)
	return m, err
}

// Create inserts a medicine.
func (r *MedicineRepo) Create(ctx context.Context, m *domain.Medicine) error {
	_, err := r.db.Pool.Exec(ctx, upsertMedicine, medicineArgs(m)...)
	return err
}

// UpsertBatch inserts many medicines using pgx.Batch.
func (r *MedicineRepo) UpsertBatch(ctx context.Context, medicines []domain.Medicine) error {
	batch := &pgx.Batch{}
	for i := range medicines {
		batch.Queue(upsertMedicine, medicineArgs(&medicines[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range medicines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a medicine by id.
func (r *MedicineRepo) GetByID(ctx context.Context, id string) (*domain.Medicine, error) {
	m, err := scanMedicine(r.db.Pool.QueryRow(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "medicine", id)
	}
	return &m, nil
}

// List returns medicines in insertion order, filtered by category when non-empty.
func (r *MedicineRepo) List(ctx context.Context, category string) ([]domain.Medicine, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE $1 = '' OR category = $1
		ORDER BY created_at, id
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Categories returns the distinct categories in alphabetical order.
func (r *MedicineRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT category FROM medicines ORDER BY category`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Delete removes a medicine.
func (r *MedicineRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag.RowsAffected(), "medicine", id)
}

// DuplicateGroup is a set of medicines sharing one name.
type DuplicateGroup struct {
	Name string
	IDs  []string // oldest first
}

// FindDuplicateNames returns every name held by more than one medicine.
func (r *MedicineRepo) FindDuplicateNames(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, array_agg(id ORDER BY created_at, id)
		FROM medicines
		GROUP BY name
		HAVING count(*) > 1
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		if err := rows.Scan(&g.Name, &g.IDs); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
