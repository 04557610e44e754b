package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
)

func orderPreloads(q *gorm.DB) *gorm.DB {
	return q.Preload("Items").
		Preload("Items.Product").
		Preload("Items.Combo").
		Preload("Items.Variant")
}

// CreateOrder persists the order and its items in one transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("razorpay_order_id", gatewayOrderID).Error
}

func (r *GormRepo) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := orderPreloads(r.DB.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := orderPreloads(r.DB.WithContext(ctx)).
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := orderPreloads(r.DB.WithContext(ctx)).
		First(&order, "razorpay_order_id = ?", gatewayOrderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := orderPreloads(r.DB.WithContext(ctx).Where("user_id = ?", userID)).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := orderPreloads(q).Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// ConfirmPayment records the gateway payment result and flips the
// originating cart to checked_out in the same transaction, so a confirmed
// order and a still-active cart are never observable together.
func (r *GormRepo) ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentID, signature, paymentStatus, orderStatus, reference string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
			"payment_status":      paymentStatus,
			"status":              orderStatus,
			"payment_reference":   reference,
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if order.CartID != nil {
			if err := tx.Model(&models.Cart{}).
				Where("id = ?", *order.CartID).
				Update("status", models.CartStatusCheckedOut).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRepo) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, cancelOrder bool) error {
	updates := map[string]interface{}{"payment_status": models.PaymentStatusFailed}
	if cancelOrder {
		updates["status"] = models.OrderStatusCancelled
	}
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).Updates(updates).Error
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, paymentStatus string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).Update("payment_status", paymentStatus)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) StaleOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("payment_status IN ?", []string{models.PaymentStatusPending, models.PaymentStatusFailed}).
		Where("created_at < ?", cutoff).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteStaleOrders abandons the carts behind stale pending/failed orders and
// deletes the orders, all in one transaction.
func (r *GormRepo) DeleteStaleOrders(ctx context.Context, orders []models.Order) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	cartIDs := make([]uuid.UUID, 0, len(orders))
	for i := range orders {
		orderIDs = append(orderIDs, orders[i].ID)
		if orders[i].CartID != nil {
			cartIDs = append(cartIDs, *orders[i].CartID)
		}
	}

	var deleted int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cartIDs) > 0 {
			if err := tx.Model(&models.Cart{}).
				Where("id IN ?", cartIDs).
				Update("status", models.CartStatusAbandoned).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.OrderItem{}, "order_id IN ?", orderIDs).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id IN ?", orderIDs)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}
