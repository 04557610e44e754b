package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

// GetCart returns the identity's active cart, creating it lazily.
func (s *CartService) GetCart(ctx context.Context, id Identity) (*models.Cart, error) {
	return s.Repo.ActiveCart(ctx, id.UserID, id.guestPtr())
}

type AddItemInput struct {
	ItemType  string
	ProductID *uuid.UUID
	VariantID *uuid.UUID
	ComboID   *uuid.UUID
	Quantity  int
}

// AddItem resolves the referenced product/variant or combo, snapshots the
// current price onto the line and adds it to the cart. Adding an already
// present line increments its quantity.
func (s *CartService) AddItem(ctx context.Context, id Identity, in AddItemInput) (*models.Cart, error) {
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	cart, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	item := models.CartItem{CartID: cart.ID, Quantity: in.Quantity}

	switch in.ItemType {
	case models.ItemTypeProduct:
		if in.ProductID == nil {
			return nil, fmt.Errorf("product_id is required: %w", ErrValidation)
		}
		p, err := s.Repo.ProductByID(ctx, *in.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.IsActive) {
			return nil, fmt.Errorf("product: %w", ErrNotFound)
		}
		if err != nil {
			return nil, err
		}

		variant := p.DefaultVariant()
		if in.VariantID != nil {
			variant = nil
			for i := range p.Variants {
				if p.Variants[i].ID == *in.VariantID && p.Variants[i].IsActive {
					variant = &p.Variants[i]
					break
				}
			}
			if variant == nil {
				return nil, fmt.Errorf("variant: %w", ErrNotFound)
			}
		}

		item.ItemType = models.ItemTypeProduct
		item.ProductID = &p.ID
		if variant != nil {
			item.VariantID = &variant.ID
			ml := variant.ML
			item.VariantML = &ml
			item.PriceAtTime = variant.Price
		} else {
			item.PriceAtTime = p.Price
		}

	case models.ItemTypeCombo:
		if in.ComboID == nil {
			return nil, fmt.Errorf("combo_id is required: %w", ErrValidation)
		}
		cb, err := s.Repo.ComboByID(ctx, *in.ComboID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !cb.IsActive) {
			return nil, fmt.Errorf("combo: %w", ErrNotFound)
		}
		if err != nil {
			return nil, err
		}

		item.ItemType = models.ItemTypeCombo
		item.ComboID = &cb.ID
		item.PriceAtTime = cb.DiscountedPrice()

	default:
		return nil, fmt.Errorf("item_type must be product or combo: %w", ErrValidation)
	}

	if err := s.Repo.AddItem(ctx, &item); err != nil {
		return nil, err
	}
	return s.Repo.CartByID(ctx, cart.ID)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, id Identity, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be >= 1: %w", ErrValidation)
	}

	cart, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item: %w", ErrNotFound)
		}
		return nil, err
	}
	return s.Repo.CartByID(ctx, cart.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, id Identity, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RemoveItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item: %w", ErrNotFound)
		}
		return nil, err
	}
	return s.Repo.CartByID(ctx, cart.ID)
}

// AdoptGuestCart folds the guest's active cart into the user's cart at login
// and retires the guest cart. Missing guest cart or empty cart is a no-op.
func (s *CartService) AdoptGuestCart(ctx context.Context, userID uuid.UUID, guestID string) error {
	if guestID == "" {
		return nil
	}

	guestCart, err := s.Repo.FindActiveCart(ctx, nil, &guestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	userIdentity := UserIdentity(userID)
	l := logging.FromContext(ctx)
	for i := range guestCart.Items {
		it := &guestCart.Items[i]
		_, err := s.AddItem(ctx, userIdentity, AddItemInput{
			ItemType:  it.ItemType,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			ComboID:   it.ComboID,
			Quantity:  it.Quantity,
		})
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			l.Info("guest cart line skipped at login", "item_type", it.ItemType, "error", err)
			continue
		}
		if err != nil {
			return err
		}
	}

	return s.Repo.AbandonCart(ctx, guestCart.ID)
}

type MergeLine struct {
	ItemType  string
	ProductID *uuid.UUID
	VariantID *uuid.UUID
	ComboID   *uuid.UUID
	Quantity  int
}

// Merge folds client-held pre-login cart lines into the identity's
// persistent cart. Lines referencing unknown or inactive items are skipped
// rather than failing the whole merge.
func (s *CartService) Merge(ctx context.Context, id Identity, lines []MergeLine) (*models.Cart, error) {
	l := logging.FromContext(ctx)

	for _, line := range lines {
		_, err := s.AddItem(ctx, id, AddItemInput{
			ItemType:  line.ItemType,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			ComboID:   line.ComboID,
			Quantity:  line.Quantity,
		})
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			l.Info("cart merge skipped line", "item_type", line.ItemType, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return s.GetCart(ctx, id)
}
