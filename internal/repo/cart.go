package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
)

func cartPreloads(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.created_at ASC")
	}).
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Items.Combo")
}

// ActiveCart returns the identity's active cart, creating it lazily on first
// access. The partial unique index on carts makes concurrent get-or-create
// collapse to a single row; on a conflict we just re-read.
func (r *GormRepo) ActiveCart(ctx context.Context, userID *uuid.UUID, guestID *string) (*models.Cart, error) {
	cart, err := r.findActiveCart(ctx, userID, guestID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Cart{UserID: userID, GuestID: guestID, Status: models.CartStatusActive}
	if err := r.DB.WithContext(ctx).Create(fresh).Error; err != nil {
		// lost the race: another request created it first
		if cart, ferr := r.findActiveCart(ctx, userID, guestID); ferr == nil {
			return cart, nil
		}
		return nil, err
	}
	fresh.Items = []models.CartItem{}
	return fresh, nil
}

func (r *GormRepo) findActiveCart(ctx context.Context, userID *uuid.UUID, guestID *string) (*models.Cart, error) {
	q := r.DB.WithContext(ctx).Where("status = ?", models.CartStatusActive)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else if guestID != nil {
		q = q.Where("guest_id = ? AND user_id IS NULL", *guestID)
	} else {
		return nil, gorm.ErrRecordNotFound
	}

	var cart models.Cart
	if err := cartPreloads(q).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindActiveCart is the read-only lookup: no cart is created when none
// exists.
func (r *GormRepo) FindActiveCart(ctx context.Context, userID *uuid.UUID, guestID *string) (*models.Cart, error) {
	return r.findActiveCart(ctx, userID, guestID)
}

// AbandonCart retires a cart without deleting its lines.
func (r *GormRepo) AbandonCart(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", id).
		Update("status", models.CartStatusAbandoned).Error
}

func (r *GormRepo) CartByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := cartPreloads(r.DB.WithContext(ctx)).First(&cart, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem increments the quantity of an existing matching line, or inserts a
// new one. Update-then-create inside a transaction; the partial unique index
// backs it up under concurrent adds.
func (r *GormRepo) AddItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match := tx.Model(&models.CartItem{}).Where("cart_id = ? AND item_type = ?", item.CartID, item.ItemType)
		if item.ItemType == models.ItemTypeCombo {
			match = match.Where("combo_id = ?", item.ComboID)
		} else {
			match = match.Where("product_id = ?", item.ProductID)
			if item.VariantID != nil {
				match = match.Where("variant_id = ?", item.VariantID)
			} else {
				match = match.Where("variant_id IS NULL")
			}
		}

		res := match.Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(item).Error
	})
}

func (r *GormRepo) CartItemByID(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
