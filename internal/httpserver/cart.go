package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func cartJSON(cart *models.Cart) echo.Map {
	return echo.Map{
		"id":         cart.ID,
		"status":     cart.Status,
		"items":      cart.Items,
		"total":      cart.Total(),
		"item_count": cart.ItemCount(),
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.Svc.GetCart(ctx, identityFrom(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, cartJSON(cart))
}

type addItemRequest struct {
	ItemType  string  `json:"item_type"`
	ProductID *string `json:"product_id"`
	VariantID *string `json:"variant_id"`
	ComboID   *string `json:"combo_id"`
	Quantity  int     `json:"quantity"`
}

// parseOptionalUUID rejects malformed ids before any query runs.
func parseOptionalUUID(raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	productID, ok := parseOptionalUUID(req.ProductID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_id"})
	}
	variantID, ok := parseOptionalUUID(req.VariantID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variant_id"})
	}
	comboID, ok := parseOptionalUUID(req.ComboID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid combo_id"})
	}

	cart, err := h.Svc.AddItem(ctx, identityFrom(c), service.AddItemInput{
		ItemType:  req.ItemType,
		ProductID: productID,
		VariantID: variantID,
		ComboID:   comboID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		l.Warn("add to cart failed", "error", err)
		return serviceError(c, err)
	}

	l.Info("item added to cart", "cart_id", cart.ID)
	return c.JSON(http.StatusOK, cartJSON(cart))
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	cart, err := h.Svc.UpdateItemQuantity(ctx, identityFrom(c), itemID, req.Quantity)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, cartJSON(cart))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	cart, err := h.Svc.RemoveItem(ctx, identityFrom(c), itemID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, cartJSON(cart))
}

type mergeRequest struct {
	Items []addItemRequest `json:"items"`
}

func (h *CartHTTP) Merge(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.merge")

	var req mergeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	lines := make([]service.MergeLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, ok := parseOptionalUUID(item.ProductID)
		if !ok {
			continue
		}
		variantID, ok := parseOptionalUUID(item.VariantID)
		if !ok {
			continue
		}
		comboID, ok := parseOptionalUUID(item.ComboID)
		if !ok {
			continue
		}
		lines = append(lines, service.MergeLine{
			ItemType:  item.ItemType,
			ProductID: productID,
			VariantID: variantID,
			ComboID:   comboID,
			Quantity:  item.Quantity,
		})
	}

	cart, err := h.Svc.Merge(ctx, identityFrom(c), lines)
	if err != nil {
		return serviceError(c, err)
	}

	l.Info("cart merged", "lines", len(lines), "cart_id", cart.ID)
	return c.JSON(http.StatusOK, cartJSON(cart))
}
