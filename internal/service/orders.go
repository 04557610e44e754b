package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
	"github.com/sulthanfragrance/storefront/internal/util"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID, offset, limit)
}

// Get returns an order by number for the identity that placed it. Anything
// else, including someone else's order number, is not found.
func (s *OrderService) Get(ctx context.Context, id Identity, orderNumber string) (*models.Order, error) {
	order, err := s.Repo.OrderByNumber(ctx, orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !id.Owns(order.UserID, order.GuestID) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	return order, nil
}

// Track is the unauthenticated guest lookup: order number plus the customer
// name and the last ten phone digits must all match.
func (s *OrderService) Track(ctx context.Context, orderNumber, customerName, phone string) (*models.Order, error) {
	if orderNumber == "" || customerName == "" || phone == "" {
		return nil, fmt.Errorf("order_number, name and phone are required: %w", ErrValidation)
	}

	order, err := s.Repo.OrderByNumber(ctx, orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(customerName), strings.TrimSpace(order.CustomerName)) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	if util.LastDigits(phone, 10) != util.LastDigits(order.Phone, 10) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, status, offset, limit)
}

var validOrderStatus = map[string]bool{
	models.OrderStatusNew:        true,
	models.OrderStatusProcessing: true,
	models.OrderStatusCompleted:  true,
	models.OrderStatusCancelled:  true,
}

var validPaymentStatus = map[string]bool{
	models.PaymentStatusPending:    true,
	models.PaymentStatusProcessing: true,
	models.PaymentStatusCompleted:  true,
	models.PaymentStatusFailed:     true,
	models.PaymentStatusCancelled:  true,
}

// SetStatus drives the fulfilment state machine. Completed orders can only
// move to cancelled.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	if !validOrderStatus[status] {
		return nil, fmt.Errorf("unknown order status %q: %w", status, ErrValidation)
	}

	order, err := s.Repo.OrderByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCompleted && status != models.OrderStatusCancelled && status != models.OrderStatusCompleted {
		return nil, fmt.Errorf("completed order cannot go back to %q: %w", status, ErrValidation)
	}

	if err := s.Repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	return s.Repo.OrderByID(ctx, orderID)
}

// SetPaymentStatus is the payment state machine, independent of fulfilment.
func (s *OrderService) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, paymentStatus string) (*models.Order, error) {
	if !validPaymentStatus[paymentStatus] {
		return nil, fmt.Errorf("unknown payment status %q: %w", paymentStatus, ErrValidation)
	}

	if err := s.Repo.UpdatePaymentStatus(ctx, orderID, paymentStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, err
	}
	return s.Repo.OrderByID(ctx, orderID)
}
