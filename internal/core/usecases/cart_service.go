package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/ports"
)

// CartService manages per-user carts.
type CartService struct {
	carts     ports.CartRepository
	medicines ports.MedicineRepository
}

// NewCartService creates a new CartService.
func NewCartService(carts ports.CartRepository, medicines ports.MedicineRepository) *CartService {
	return &CartService{carts: carts, medicines: medicines}
}

// List returns the user's cart lines with their medicines joined.
func (s *CartService) List(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.carts.ListByUser(ctx, userID)
}

// Add puts quantity units of a medicine into the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, userID, medicineID string, quantity int) (*domain.CartItem, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}

	med, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return nil, fmt.Errorf("medicine %s: %w", medicineID, err)
	}
	if !med.InStock {
		return nil, domain.ErrOutOfStock
	}

	existing, err := s.carts.FindByUserAndMedicine(ctx, userID, medicineID)
	switch {
	case err == nil:
		existing.Quantity += quantity
		if err := s.carts.UpdateQuantity(ctx, existing.ID, existing.Quantity); err != nil {
			return nil, fmt.Errorf("update cart item: %w", err)
		}
		existing.Medicine = med
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find cart item: %w", err)
	}

	item := &domain.CartItem{
		ID:         uuid.NewString(),
		UserID:     userID,
		MedicineID: medicineID,
		Quantity:   quantity,
	}
	if err := s.carts.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	item.Medicine = med
	return item, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.carts.Delete(ctx, itemID)
	}
	return s.carts.UpdateQuantity(ctx, itemID, quantity)
}

// Remove deletes one line.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	return s.carts.Delete(ctx, itemID)
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return s.carts.DeleteByUser(ctx, userID)
}

// owned loads a cart line, hiding lines of other users as not found.
func (s *CartService) owned(ctx context.Context, userID, itemID string) (*domain.CartItem, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	item, err := s.carts.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("cart item %s: %w", itemID, domain.ErrNotFound)
	}
	return item, nil
}
