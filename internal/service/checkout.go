package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/razorpay"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

// Gateway is the payment provider surface checkout depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (string, error)
}

type CheckoutService struct {
	Repo     *repo.GormRepo
	Gateway  Gateway
	Producer EventPublisher

	KeySecret     string
	WebhookSecret string

	// AdvanceAmount is the fixed online payment that confirms a COD order;
	// the balance is cash at delivery.
	AdvanceAmount decimal.Decimal
}

type CreateOrderInput struct {
	CustomerName string
	Phone        string
	AddressLine  string
	City         string
	District     string
	Pincode      string
	Method       string
}

func (in *CreateOrderInput) validate() error {
	missing := ""
	switch {
	case in.CustomerName == "":
		missing = "customer_name"
	case in.Phone == "":
		missing = "phone"
	case in.AddressLine == "":
		missing = "address_line"
	case in.City == "":
		missing = "city"
	case in.Pincode == "":
		missing = "pincode"
	}
	if missing != "" {
		return fmt.Errorf("%s is required: %w", missing, ErrValidation)
	}
	if in.Method != models.PaymentMethodRazorpay && in.Method != models.PaymentMethodCOD {
		return fmt.Errorf("payment method must be razorpay or cod: %w", ErrValidation)
	}
	return nil
}

// CreateOrder snapshots the identity's active cart into an immutable order,
// then asks the gateway for a payment order over amount due. The cart stays
// active until the payment is verified; a gateway failure leaves the order
// pending and is safe to retry.
func (s *CheckoutService) CreateOrder(ctx context.Context, id Identity, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.District == "" {
		in.District = "Kasaragod"
	}

	cart, err := s.Repo.ActiveCart(ctx, id.UserID, id.guestPtr())
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", ErrValidation)
	}

	total := cart.Total()
	advance := decimal.Zero
	balance := decimal.Zero
	amountDue := total
	if in.Method == models.PaymentMethodCOD {
		advance = s.AdvanceAmount
		if advance.GreaterThan(total) {
			advance = total
		}
		balance = total.Sub(advance)
		amountDue = advance
	}

	order := &models.Order{
		UserID:               id.UserID,
		GuestID:              id.guestPtr(),
		CartID:               &cart.ID,
		PaymentMethod:        in.Method,
		PaymentStatus:        models.PaymentStatusPending,
		CustomerName:         in.CustomerName,
		Phone:                in.Phone,
		AddressLine:          in.AddressLine,
		City:                 in.City,
		District:             in.District,
		Pincode:              in.Pincode,
		Status:               models.OrderStatusNew,
		TotalAmount:          total,
		AdvancePaymentAmount: advance,
		CODBalanceAmount:     balance,
	}
	for i := range cart.Items {
		ci := &cart.Items[i]
		order.Items = append(order.Items, models.OrderItem{
			ItemType:        ci.ItemType,
			ProductID:       ci.ProductID,
			ComboID:         ci.ComboID,
			VariantID:       ci.VariantID,
			VariantML:       ci.VariantML,
			Quantity:        ci.Quantity,
			PriceAtPurchase: ci.PriceAtTime,
		})
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	notes := map[string]interface{}{
		"order_number":   order.OrderNumber,
		"payment_method": in.Method,
	}
	gatewayOrderID, err := s.Gateway.CreateOrder(ctx, toPaise(amountDue), "INR", order.OrderNumber, notes)
	if err != nil {
		return nil, fmt.Errorf("create gateway order for %s: %v: %w", order.OrderNumber, err, ErrGateway)
	}
	if err := s.Repo.SetGatewayOrderID(ctx, order.ID, gatewayOrderID); err != nil {
		return nil, err
	}
	order.RazorpayOrderID = &gatewayOrderID

	s.publishOrderEvent(ctx, "order_created", order)
	return order, nil
}

// VerifyPayment reconciles the checkout callback. The signature is an HMAC
// over "gateway_order_id|payment_id" compared constant-time; a mismatch
// permanently fails this payment attempt. A match confirms the order and
// flips the cart to checked_out in one transaction. Orders not owned by the
// caller are reported as not found.
func (s *CheckoutService) VerifyPayment(ctx context.Context, id Identity, gatewayOrderID, paymentID, signature string) (*models.Order, error) {
	order, err := s.Repo.OrderByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !id.Owns(order.UserID, order.GuestID) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}

	if !razorpay.VerifyPaymentSignature(gatewayOrderID, paymentID, signature, s.KeySecret) {
		if err := s.Repo.MarkPaymentFailed(ctx, order.ID, false); err != nil {
			return nil, err
		}
		s.publishOrderEvent(ctx, "payment_failed", order)
		return nil, fmt.Errorf("signature mismatch for %s: %w", order.OrderNumber, ErrVerification)
	}

	paymentStatus := models.PaymentStatusCompleted
	reference := paymentID
	if order.PaymentMethod == models.PaymentMethodCOD {
		// only the advance is paid; the balance stays due until delivery
		paymentStatus = models.PaymentStatusPending
		reference = "advance:" + paymentID
	}

	if err := s.Repo.ConfirmPayment(ctx, order.ID, paymentID, signature,
		paymentStatus, models.OrderStatusProcessing, reference); err != nil {
		return nil, err
	}

	confirmed, err := s.Repo.OrderByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.publishOrderEvent(ctx, "payment_verified", confirmed)
	return confirmed, nil
}

// PaymentFailed records a client-reported checkout failure.
func (s *CheckoutService) PaymentFailed(ctx context.Context, id Identity, gatewayOrderID string) error {
	order, err := s.Repo.OrderByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if !id.Owns(order.UserID, order.GuestID) {
		return fmt.Errorf("order: %w", ErrNotFound)
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return fmt.Errorf("payment already completed: %w", ErrValidation)
	}

	if err := s.Repo.MarkPaymentFailed(ctx, order.ID, true); err != nil {
		return err
	}
	s.publishOrderEvent(ctx, "payment_failed", order)
	return nil
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook is the asynchronous reconciliation path. It is idempotent
// with respect to the synchronous verify flow: duplicate and out-of-order
// events are logged no-ops. Only the signature check can fail the request.
func (s *CheckoutService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	l := logging.FromContext(ctx)

	if !razorpay.VerifyWebhookSignature(body, signature, s.WebhookSecret) {
		return fmt.Errorf("webhook signature mismatch: %w", ErrVerification)
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		l.Warn("webhook: malformed body", "error", err)
		return nil
	}

	gatewayOrderID := payload.Payload.Payment.Entity.OrderID
	paymentID := payload.Payload.Payment.Entity.ID
	if gatewayOrderID == "" {
		l.Info("webhook: no order reference, ignoring", "event", payload.Event)
		return nil
	}

	order, err := s.Repo.OrderByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Info("webhook: unknown order, ignoring", "gateway_order_id", gatewayOrderID)
		return nil
	}
	if err != nil {
		return err
	}

	switch payload.Event {
	case "payment.captured":
		if order.PaymentStatus == models.PaymentStatusCompleted {
			l.Info("webhook: payment already completed", "order_number", order.OrderNumber)
			return nil
		}

		paymentStatus := models.PaymentStatusCompleted
		reference := paymentID
		if order.PaymentMethod == models.PaymentMethodCOD {
			paymentStatus = models.PaymentStatusPending
			reference = "advance:" + paymentID
		}
		if err := s.Repo.ConfirmPayment(ctx, order.ID, paymentID, order.RazorpaySignature,
			paymentStatus, models.OrderStatusProcessing, reference); err != nil {
			return err
		}
		s.publishOrderEvent(ctx, "payment_captured", order)

	case "payment.failed":
		if order.PaymentStatus == models.PaymentStatusCompleted {
			l.Info("webhook: failure event after completion, ignoring", "order_number", order.OrderNumber)
			return nil
		}
		if order.PaymentStatus == models.PaymentStatusFailed {
			return nil
		}
		if err := s.Repo.MarkPaymentFailed(ctx, order.ID, true); err != nil {
			return err
		}
		s.publishOrderEvent(ctx, "payment_failed", order)

	default:
		l.Info("webhook: unhandled event", "event", payload.Event)
	}
	return nil
}

func toPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (s *CheckoutService) publishOrderEvent(ctx context.Context, eventType string, order *models.Order) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event := map[string]interface{}{
		"type":           eventType,
		"order_number":   order.OrderNumber,
		"payment_method": order.PaymentMethod,
		"total_amount":   order.TotalAmount.String(),
	}
	if err := s.Producer.Publish(pubCtx, "order_events", order.OrderNumber, event); err != nil {
		logging.FromContext(ctx).Warn("publish order event failed", "error", err)
	}
}
