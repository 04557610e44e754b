package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/service"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
	// KeyID is public, handed to the browser checkout widget.
	KeyID string
}

type createOrderRequest struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	AddressLine  string `json:"address_line"`
	City         string `json:"city"`
	District     string `json:"district"`
	Pincode      string `json:"pincode"`
}

func (h *CheckoutHTTP) createOrder(c echo.Context, method string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create", "method", method)

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	order, err := h.Svc.CreateOrder(ctx, identityFrom(c), service.CreateOrderInput{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		AddressLine:  req.AddressLine,
		City:         req.City,
		District:     req.District,
		Pincode:      req.Pincode,
		Method:       method,
	})
	if err != nil {
		l.Warn("create order failed", "error", err)
		return serviceError(c, err)
	}

	l.Info("order created", "order_number", order.OrderNumber)
	resp := echo.Map{
		"order_number":      order.OrderNumber,
		"razorpay_order_id": order.RazorpayOrderID,
		"razorpay_key_id":   h.KeyID,
		"total_amount":      order.TotalAmount,
		"currency":          "INR",
	}
	if method == models.PaymentMethodCOD {
		resp["advance_payment_amount"] = order.AdvancePaymentAmount
		resp["cod_balance_amount"] = order.CODBalanceAmount
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHTTP) CreateRazorpayOrder(c echo.Context) error {
	return h.createOrder(c, models.PaymentMethodRazorpay)
}

func (h *CheckoutHTTP) CreateCODOrder(c echo.Context) error {
	return h.createOrder(c, models.PaymentMethodCOD)
}

func (h *CheckoutHTTP) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.verify")

	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order id, payment id and signature are required"})
	}

	order, err := h.Svc.VerifyPayment(ctx, identityFrom(c),
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		l.Warn("payment verification failed", "gateway_order_id", req.RazorpayOrderID, "error", err)
		return serviceError(c, err)
	}

	l.Info("payment verified", "order_number", order.OrderNumber)
	return c.JSON(http.StatusOK, echo.Map{
		"order_number":   order.OrderNumber,
		"payment_status": order.PaymentStatus,
		"status":         order.Status,
	})
}

func (h *CheckoutHTTP) PaymentFailed(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		RazorpayOrderID string `json:"razorpay_order_id"`
	}
	if err := c.Bind(&req); err != nil || req.RazorpayOrderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "razorpay_order_id is required"})
	}

	if err := h.Svc.PaymentFailed(ctx, identityFrom(c), req.RazorpayOrderID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "recorded"})
}

// Webhook verifies the signature over the raw body before reading anything
// from it. Handled or not, the gateway always gets a 200 back so it stops
// retrying; only a bad signature is rejected.
func (h *CheckoutHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.webhook")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if err := h.Svc.HandleWebhook(ctx, body, signature); err != nil {
		l.Warn("webhook rejected", "error", err)
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
