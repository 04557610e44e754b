package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/token"
	"github.com/sulthanfragrance/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func orderJSON(o *models.Order) echo.Map {
	items := make([]echo.Map, 0, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		m := echo.Map{
			"id":                it.ID,
			"item_type":         it.ItemType,
			"quantity":          it.Quantity,
			"price_at_purchase": it.PriceAtPurchase,
			"total_price":       it.TotalPrice(),
		}
		if it.Product != nil {
			m["product"] = echo.Map{"id": it.Product.ID, "name": it.Product.Name, "slug": it.Product.Slug}
		}
		if it.Variant != nil {
			m["variant"] = echo.Map{"id": it.Variant.ID, "ml": it.Variant.ML}
		}
		if it.Combo != nil {
			m["combo"] = echo.Map{"id": it.Combo.ID, "title": it.Combo.Title, "slug": it.Combo.Slug}
		}
		items = append(items, m)
	}

	m := echo.Map{
		"order_number":   o.OrderNumber,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"payment_method": o.PaymentMethod,
		"customer_name":  o.CustomerName,
		"phone":          o.Phone,
		"address_line":   o.AddressLine,
		"city":           o.City,
		"district":       o.District,
		"pincode":        o.Pincode,
		"total_amount":   o.TotalAmount,
		"created_at":     o.CreatedAt,
		"items":          items,
	}
	if o.PaymentMethod == models.PaymentMethodCOD {
		m["advance_payment_amount"] = o.AdvancePaymentAmount
		m["cod_balance_amount"] = o.CODBalanceAmount
	}
	return m
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Svc.ListForUser(c.Request().Context(), userID, offset, limit)
	if err != nil {
		return serviceError(c, err)
	}

	out := make([]echo.Map, 0, len(orders))
	for i := range orders {
		out = append(out, orderJSON(&orders[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out, "page": page})
}

func (h *OrderHTTP) Get(c echo.Context) error {
	order, err := h.Svc.Get(c.Request().Context(), identityFrom(c), c.Param("number"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, orderJSON(order))
}

// Track lets a guest look up an order without a session; the order number
// alone is not enough, name and phone have to match too.
func (h *OrderHTTP) Track(c echo.Context) error {
	var req struct {
		OrderNumber  string `json:"order_number"`
		CustomerName string `json:"customer_name"`
		Phone        string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	order, err := h.Svc.Track(c.Request().Context(), req.OrderNumber, req.CustomerName, req.Phone)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, orderJSON(order))
}
