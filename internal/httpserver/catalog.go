package httpserver

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/search"
	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func pageMeta(page, limit, offset int, total int64) echo.Map {
	return echo.Map{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	cats, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var categoryID *uuid.UUID
	if raw := c.QueryParam("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
		}
		categoryID = &id
	}

	total, items, err := h.Svc.ListProducts(c.Request().Context(), categoryID, offset, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *CatalogHTTP) FeaturedProduct(c echo.Context) error {
	p, err := h.Svc.FeaturedProduct(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) ProductBySlug(c echo.Context) error {
	p, err := h.Svc.ProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) ListCombos(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, combos, err := h.Svc.ListCombos(c.Request().Context(), offset, limit)
	if err != nil {
		return serviceError(c, err)
	}

	data := make([]echo.Map, len(combos))
	for i := range combos {
		data[i] = comboJSON(&combos[i])
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": data,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *CatalogHTTP) ComboBySlug(c echo.Context) error {
	cb, err := h.Svc.ComboBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, comboJSON(cb))
}

// comboJSON attaches the computed prices the model never stores.
func comboJSON(cb *models.Combo) echo.Map {
	return echo.Map{
		"id":                  cb.ID,
		"title":               cb.Title,
		"slug":                cb.Slug,
		"discount_percentage": cb.DiscountPercentage,
		"is_active":           cb.IsActive,
		"is_featured":         cb.IsFeatured,
		"items":               cb.Items,
		"original_price":      cb.OriginalPrice(),
		"discounted_price":    cb.DiscountedPrice(),
		"created_at":          cb.CreatedAt,
	}
}

type SearchHTTP struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHTTP) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, hits, err := search.Products(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": hits})
}
