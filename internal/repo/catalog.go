package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := r.DB.WithContext(ctx).Model(&models.Category{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var cats []models.Category
	if err := q.Order("display_order ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Save(cat).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

func (r *GormRepo) ListProducts(ctx context.Context, activeOnly bool, categoryID *uuid.UUID, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Preload("Variants").Preload("Category").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// FeaturedProduct returns the most recently created active product flagged
// as featured, or the newest active product when none is flagged.
func (r *GormRepo) FeaturedProduct(ctx context.Context) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Preload("Variants").Preload("Category").
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Preload("Variants").Preload("Category").
		Where("is_active = ?", true).
		Order("created_at DESC").First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Variants").Preload("Category").
		First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Variants").Preload("Category").
		First(&p, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProductVariant{}, "product_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
}

func (r *GormRepo) VariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var v models.ProductVariant
	if err := r.DB.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

func (r *GormRepo) SaveVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.DB.WithContext(ctx).Save(v).Error
}

func (r *GormRepo) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Delete(&models.ProductVariant{}, "id = ?", id).Error
}

func comboPreloads(q *gorm.DB) *gorm.DB {
	return q.Preload("Items").
		Preload("Items.Variant").
		Preload("Items.Product").
		Preload("Items.Product.Variants")
}

func (r *GormRepo) ListCombos(ctx context.Context, activeOnly bool, offset, limit int) (int64, []models.Combo, error) {
	q := r.DB.WithContext(ctx).Model(&models.Combo{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var combos []models.Combo
	if err := comboPreloads(q).Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&combos).Error; err != nil {
		return 0, nil, err
	}
	return total, combos, nil
}

func (r *GormRepo) ComboByID(ctx context.Context, id uuid.UUID) (*models.Combo, error) {
	var cb models.Combo
	if err := comboPreloads(r.DB.WithContext(ctx)).First(&cb, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cb, nil
}

func (r *GormRepo) ComboBySlug(ctx context.Context, slug string) (*models.Combo, error) {
	var cb models.Combo
	if err := comboPreloads(r.DB.WithContext(ctx)).First(&cb, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &cb, nil
}

func (r *GormRepo) ComboSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(&models.Combo{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateCombo(ctx context.Context, cb *models.Combo) error {
	return r.DB.WithContext(ctx).Create(cb).Error
}

func (r *GormRepo) SaveCombo(ctx context.Context, cb *models.Combo) error {
	return r.DB.WithContext(ctx).Omit("Items").Save(cb).Error
}

// ReplaceComboItems swaps the pinned (product, variant) pairs atomically.
func (r *GormRepo) ReplaceComboItems(ctx context.Context, comboID uuid.UUID, items []models.ComboProduct) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ComboProduct{}, "combo_id = ?", comboID).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ComboID = comboID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRepo) DeleteCombo(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ComboProduct{}, "combo_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Combo{}, "id = ?", id).Error
	})
}
