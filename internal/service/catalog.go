package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

// ProductIndexer mirrors catalog writes into the search index.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Producer EventPublisher
	Indexer  ProductIndexer
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, true)
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, true, categoryID, offset, limit)
}

func (s *CatalogService) ProductBySlug(ctx context.Context, productSlug string) (*models.Product, error) {
	p, err := s.Repo.ProductBySlug(ctx, productSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %q: %w", productSlug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("product %q: %w", productSlug, ErrNotFound)
	}
	return p, nil
}

// FeaturedProduct picks the newest product flagged featured, falling back to
// the newest active product so the storefront hero is never empty.
func (s *CatalogService) FeaturedProduct(ctx context.Context) (*models.Product, error) {
	p, err := s.Repo.FeaturedProduct(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("featured product: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) ListCombos(ctx context.Context, offset, limit int) (int64, []models.Combo, error) {
	return s.Repo.ListCombos(ctx, true, offset, limit)
}

func (s *CatalogService) ComboBySlug(ctx context.Context, comboSlug string) (*models.Combo, error) {
	cb, err := s.Repo.ComboBySlug(ctx, comboSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("combo %q: %w", comboSlug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !cb.IsActive {
		return nil, fmt.Errorf("combo %q: %w", comboSlug, ErrNotFound)
	}
	return cb, nil
}

type ProductInput struct {
	Name             string
	CategoryID       *uuid.UUID
	ShortDescription string
	FullDescription  string
	Origin           string
	FragranceNotes   string
	Price            decimal.Decimal
	IsFeatured       bool
	IsActive         bool
	Variants         []VariantInput
}

type VariantInput struct {
	ML       int
	Price    decimal.Decimal
	IsActive bool
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	for _, v := range in.Variants {
		if v.ML <= 0 || v.Price.IsNegative() {
			return nil, fmt.Errorf("variant ml and price must be positive: %w", ErrValidation)
		}
	}

	p := &models.Product{
		Name:             in.Name,
		Slug:             slug.Make(in.Name),
		CategoryID:       in.CategoryID,
		ShortDescription: in.ShortDescription,
		FullDescription:  in.FullDescription,
		Origin:           in.Origin,
		FragranceNotes:   in.FragranceNotes,
		Price:            in.Price,
		IsFeatured:       in.IsFeatured,
		IsActive:         in.IsActive,
	}
	for _, v := range in.Variants {
		p.Variants = append(p.Variants, models.ProductVariant{
			ML:       v.ML,
			Price:    v.Price,
			IsActive: v.IsActive,
		})
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.publishProductEvent(ctx, "product_created", p)
	s.indexProduct(ctx, p)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	p, err := s.Repo.ProductByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}

	if in.Name != "" && in.Name != p.Name {
		p.Name = in.Name
		p.Slug = slug.Make(in.Name)
	}
	p.CategoryID = in.CategoryID
	p.ShortDescription = in.ShortDescription
	p.FullDescription = in.FullDescription
	p.Origin = in.Origin
	p.FragranceNotes = in.FragranceNotes
	p.Price = in.Price
	p.IsFeatured = in.IsFeatured
	p.IsActive = in.IsActive

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}

	s.publishProductEvent(ctx, "product_updated", p)
	s.indexProduct(ctx, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.Producer != nil {
		event := map[string]interface{}{"type": "product_deleted", "product_id": id.String()}
		if err := s.Producer.Publish(ctx, "product_events", id.String(), event); err != nil {
			logging.FromContext(ctx).Warn("publish product event failed", "error", err)
		}
	}
	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search index delete failed", "error", err)
		}
	}
	return nil
}

func (s *CatalogService) AddVariant(ctx context.Context, productID uuid.UUID, in VariantInput) (*models.ProductVariant, error) {
	if in.ML <= 0 || in.Price.IsNegative() {
		return nil, fmt.Errorf("variant ml and price must be positive: %w", ErrValidation)
	}
	if _, err := s.Repo.ProductByID(ctx, productID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product: %w", ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	v := &models.ProductVariant{
		ProductID: productID,
		ML:        in.ML,
		Price:     in.Price,
		IsActive:  in.IsActive,
	}
	if err := s.Repo.CreateVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *CatalogService) UpdateVariant(ctx context.Context, id uuid.UUID, in VariantInput) (*models.ProductVariant, error) {
	v, err := s.Repo.VariantByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("variant: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if in.ML <= 0 || in.Price.IsNegative() {
		return nil, fmt.Errorf("variant ml and price must be positive: %w", ErrValidation)
	}

	v.ML = in.ML
	v.Price = in.Price
	v.IsActive = in.IsActive
	if err := s.Repo.SaveVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *CatalogService) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return s.Repo.DeleteVariant(ctx, id)
}

type ComboInput struct {
	Title              string
	DiscountPercentage int
	IsActive           bool
	IsFeatured         bool
	Items              []ComboItemInput
}

type ComboItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
}

func (s *CatalogService) CreateCombo(ctx context.Context, in ComboInput) (*models.Combo, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return nil, fmt.Errorf("discount must be between 0 and 100: %w", ErrValidation)
	}

	items, err := s.resolveComboItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	comboSlug, err := s.uniqueComboSlug(ctx, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}

	cb := &models.Combo{
		Title:              in.Title,
		Slug:               comboSlug,
		DiscountPercentage: in.DiscountPercentage,
		IsActive:           in.IsActive,
		IsFeatured:         in.IsFeatured,
		Items:              items,
	}
	if err := s.Repo.CreateCombo(ctx, cb); err != nil {
		return nil, err
	}
	return s.Repo.ComboByID(ctx, cb.ID)
}

func (s *CatalogService) UpdateCombo(ctx context.Context, id uuid.UUID, in ComboInput) (*models.Combo, error) {
	cb, err := s.Repo.ComboByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("combo: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return nil, fmt.Errorf("discount must be between 0 and 100: %w", ErrValidation)
	}

	if in.Title != "" && in.Title != cb.Title {
		cb.Title = in.Title
		if cb.Slug, err = s.uniqueComboSlug(ctx, in.Title, cb.ID); err != nil {
			return nil, err
		}
	}
	cb.DiscountPercentage = in.DiscountPercentage
	cb.IsActive = in.IsActive
	cb.IsFeatured = in.IsFeatured
	if err := s.Repo.SaveCombo(ctx, cb); err != nil {
		return nil, err
	}

	if in.Items != nil {
		items, err := s.resolveComboItems(ctx, in.Items)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.ReplaceComboItems(ctx, cb.ID, items); err != nil {
			return nil, err
		}
	}
	return s.Repo.ComboByID(ctx, cb.ID)
}

func (s *CatalogService) DeleteCombo(ctx context.Context, id uuid.UUID) error {
	return s.Repo.DeleteCombo(ctx, id)
}

func (s *CatalogService) resolveComboItems(ctx context.Context, inputs []ComboItemInput) ([]models.ComboProduct, error) {
	items := make([]models.ComboProduct, 0, len(inputs))
	for _, item := range inputs {
		p, err := s.Repo.ProductByID(ctx, item.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("combo product %s: %w", item.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}

		cp := models.ComboProduct{ProductID: p.ID, VariantID: item.VariantID}
		if item.VariantID != nil {
			v, err := s.Repo.VariantByID(ctx, *item.VariantID)
			if err != nil || v.ProductID != p.ID {
				return nil, fmt.Errorf("combo variant %s: %w", item.VariantID, ErrNotFound)
			}
		}
		items = append(items, cp)
	}
	return items, nil
}

// uniqueComboSlug appends -1, -2, ... until the slug is free, matching how
// combo titles routinely collide ("Gift Pack").
func (s *CatalogService) uniqueComboSlug(ctx context.Context, title string, excludeID uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "combo"
	}

	candidate := base
	for i := 1; ; i++ {
		exists, err := s.Repo.ComboSlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

type CategoryInput struct {
	Name         string
	Description  string
	DisplayOrder int
	IsActive     bool
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	cat := &models.Category{
		Name:         in.Name,
		Slug:         slug.Make(in.Name),
		Description:  in.Description,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
	}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	cat, err := s.Repo.CategoryByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("category: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if in.Name != "" && in.Name != cat.Name {
		cat.Name = in.Name
		cat.Slug = slug.Make(in.Name)
	}
	cat.Description = in.Description
	cat.DisplayOrder = in.DisplayOrder
	cat.IsActive = in.IsActive
	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.Repo.DeleteCategory(ctx, id)
}

func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, p *models.Product) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event := map[string]interface{}{
		"type":       eventType,
		"product_id": p.ID.String(),
		"name":       p.Name,
	}
	if err := s.Producer.Publish(pubCtx, "product_events", p.ID.String(), event); err != nil {
		logging.FromContext(ctx).Warn("publish product event failed", "error", err)
	}
}

func (s *CatalogService) indexProduct(ctx context.Context, p *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search index update failed", "error", err)
	}
}
