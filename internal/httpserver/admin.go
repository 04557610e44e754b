package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/util"
)

// AdminHTTP carries the staff-only catalog and order management endpoints.
// Route-level middleware enforces the staff check before any of these run.
type AdminHTTP struct {
	Catalog *service.CatalogService
	Orders  *service.OrderService
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

type productRequest struct {
	Name             string           `json:"name"`
	CategoryID       *string          `json:"category_id"`
	ShortDescription string           `json:"short_description"`
	FullDescription  string           `json:"full_description"`
	Origin           string           `json:"origin"`
	FragranceNotes   string           `json:"fragrance_notes"`
	Price            decimal.Decimal  `json:"price"`
	IsFeatured       bool             `json:"is_featured"`
	IsActive         bool             `json:"is_active"`
	Variants         []variantRequest `json:"variants"`
}

type variantRequest struct {
	ML       int             `json:"ml"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"is_active"`
}

func (r *productRequest) input() (service.ProductInput, error) {
	in := service.ProductInput{
		Name:             r.Name,
		ShortDescription: r.ShortDescription,
		FullDescription:  r.FullDescription,
		Origin:           r.Origin,
		FragranceNotes:   r.FragranceNotes,
		Price:            r.Price,
		IsFeatured:       r.IsFeatured,
		IsActive:         r.IsActive,
	}
	if r.CategoryID != nil && *r.CategoryID != "" {
		id, err := uuid.Parse(*r.CategoryID)
		if err != nil {
			return in, err
		}
		in.CategoryID = &id
	}
	for _, v := range r.Variants {
		in.Variants = append(in.Variants, service.VariantInput{ML: v.ML, Price: v.Price, IsActive: v.IsActive})
	}
	return in, nil
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, err := req.input()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	p, err := h.Catalog.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHTTP) UpdateProduct(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, err := req.input()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	p, err := h.Catalog.UpdateProduct(c.Request().Context(), id, in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if err := h.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) AddVariant(c echo.Context) error {
	productID, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req variantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	v, err := h.Catalog.AddVariant(c.Request().Context(), productID,
		service.VariantInput{ML: req.ML, Price: req.Price, IsActive: req.IsActive})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *AdminHTTP) UpdateVariant(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variant id"})
	}
	var req variantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	v, err := h.Catalog.UpdateVariant(c.Request().Context(), id,
		service.VariantInput{ML: req.ML, Price: req.Price, IsActive: req.IsActive})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *AdminHTTP) DeleteVariant(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variant id"})
	}
	if err := h.Catalog.DeleteVariant(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type comboRequest struct {
	Title              string `json:"title"`
	DiscountPercentage int    `json:"discount_percentage"`
	IsActive           bool   `json:"is_active"`
	IsFeatured         bool   `json:"is_featured"`
	Items              []struct {
		ProductID string  `json:"product_id"`
		VariantID *string `json:"variant_id"`
	} `json:"items"`
}

func (r *comboRequest) input() (service.ComboInput, error) {
	in := service.ComboInput{
		Title:              r.Title,
		DiscountPercentage: r.DiscountPercentage,
		IsActive:           r.IsActive,
		IsFeatured:         r.IsFeatured,
	}
	for _, item := range r.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return in, err
		}
		ci := service.ComboItemInput{ProductID: pid}
		if item.VariantID != nil && *item.VariantID != "" {
			vid, err := uuid.Parse(*item.VariantID)
			if err != nil {
				return in, err
			}
			ci.VariantID = &vid
		}
		in.Items = append(in.Items, ci)
	}
	return in, nil
}

func (h *AdminHTTP) CreateCombo(c echo.Context) error {
	var req comboRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, err := req.input()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	cb, err := h.Catalog.CreateCombo(c.Request().Context(), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, comboJSON(cb))
}

func (h *AdminHTTP) UpdateCombo(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid combo id"})
	}
	var req comboRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, err := req.input()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	cb, err := h.Catalog.UpdateCombo(c.Request().Context(), id, in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, comboJSON(cb))
}

func (h *AdminHTTP) DeleteCombo(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid combo id"})
	}
	if err := h.Catalog.DeleteCombo(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type categoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

func (h *AdminHTTP) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	cat, err := h.Catalog.CreateCategory(c.Request().Context(), service.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminHTTP) UpdateCategory(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	cat, err := h.Catalog.UpdateCategory(c.Request().Context(), id, service.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *AdminHTTP) DeleteCategory(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	if err := h.Catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Orders.ListAll(c.Request().Context(), c.QueryParam("status"), offset, limit)
	if err != nil {
		return serviceError(c, err)
	}

	out := make([]echo.Map, 0, len(orders))
	for i := range orders {
		out = append(out, orderJSON(&orders[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out, "meta": pageMeta(page, limit, offset, total)})
}

func (h *AdminHTTP) SetOrderStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	order, err := h.Orders.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, orderJSON(order))
}

func (h *AdminHTTP) SetPaymentStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	order, err := h.Orders.SetPaymentStatus(c.Request().Context(), id, req.PaymentStatus)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, orderJSON(order))
}
