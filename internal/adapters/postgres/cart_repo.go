package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// CartRepo implements ports.CartRepository with pgx.
type CartRepo struct {
	db *DB
}

// NewCartRepo creates a new CartRepo.
func NewCartRepo(db *DB) *CartRepo {
	return &CartRepo{db: db}
}

func scanCartItem(row pgx.Row) (*domain.CartItem, error) {
	var it domain.CartItem
	if err := row.Scan(&it.ID, &it.UserID, &it.MedicineID, &it.Quantity); err != nil {
		return nil, err
	}
	return &it, nil
}

// ListByUser returns the user's cart lines with their medicines joined.
func (r *CartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT c.id, c.user_id, c.medicine_id, c.quantity,
		       m.id, m.name, m.description, m.category, m.price, COALESCE(m.image_url, ''), m.in_stock,
		       m.requires_prescription, COALESCE(m.manufacturer, ''), COALESCE(m.dosage, ''), m.quantity, m.created_at
		FROM cart_items c
		JOIN medicines m ON m.id = c.medicine_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var m domain.Medicine
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.MedicineID, &it.Quantity,
			&m.ID, &m.Name, &m.Description, &m.Category, &m.Price, &m.ImageURL, &m.InStock,
			&m.RequiresPrescription, &m.Manufacturer, &m.Dosage, &m.Quantity, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		it.Medicine = &m
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetByID returns one cart line.
func (r *CartRepo) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	it, err := scanCartItem(r.db.Pool.QueryRow(ctx,
		`SELECT id, user_id, medicine_id, quantity FROM cart_items WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "cart item", id)
	}
	return it, nil
}

// FindByUserAndMedicine returns the user's line for a medicine.
func (r *CartRepo) FindByUserAndMedicine(ctx context.Context, userID, medicineID string) (*domain.CartItem, error) {
	it, err := scanCartItem(r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, medicine_id, quantity
		FROM cart_items WHERE user_id = $1 AND medicine_id = $2
	`, userID, medicineID))
	if err != nil {
		return nil, notFound(err, "cart item for medicine", medicineID)
	}
	return it, nil
}

// Insert adds a cart line.
func (r *CartRepo) Insert(ctx context.Context, item *domain.CartItem) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, medicine_id, quantity)
		VALUES ($1, $2, $3, $4)
	`, item.ID, item.UserID, item.MedicineID, item.Quantity)
	return err
}

// UpdateQuantity sets a line's quantity.
func (r *CartRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return err
	}
	return affected(tag.RowsAffected(), "cart item", id)
}

// Delete removes a line.
func (r *CartRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag.RowsAffected(), "cart item", id)
}

// DeleteByUser empties a user's cart.
func (r *CartRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
