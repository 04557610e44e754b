package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	Name         string    `gorm:"size:100;unique;not null"    json:"name"`
	Slug         string    `gorm:"size:120;uniqueIndex"        json:"slug"`
	Description  string    `json:"description"`
	DisplayOrder int       `gorm:"default:0;index"             json:"display_order"`
	IsActive     bool      `gorm:"default:true;index"          json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"     json:"id"`
	Name             string           `gorm:"size:100;unique;not null" json:"name"`
	Slug             string           `gorm:"size:120;uniqueIndex"     json:"slug"`
	CategoryID       *uuid.UUID       `gorm:"type:uuid;index"          json:"category_id"`
	Category         *Category        `gorm:"foreignKey:CategoryID"    json:"category,omitempty"`
	ShortDescription string           `gorm:"size:255"                 json:"short_description"`
	FullDescription  string           `json:"full_description"`
	Origin           string           `gorm:"size:20"                  json:"origin"`
	FragranceNotes   string           `gorm:"size:255"                 json:"fragrance_notes"`
	Price            decimal.Decimal  `gorm:"type:decimal(10,2)"       json:"price"`
	IsFeatured       bool             `gorm:"default:false"            json:"is_featured"`
	IsActive         bool             `gorm:"default:true;index"       json:"is_active"`
	Variants         []ProductVariant `gorm:"foreignKey:ProductID"     json:"variants,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DefaultVariant is the oldest active variant, used when the caller does not
// pick one explicitly. Requires Variants to be preloaded.
func (p *Product) DefaultVariant() *ProductVariant {
	var def *ProductVariant
	for i := range p.Variants {
		v := &p.Variants[i]
		if !v.IsActive {
			continue
		}
		if def == nil || v.CreatedAt.Before(def.CreatedAt) {
			def = v
		}
	}
	return def
}

// DefaultVariantPrice falls back to the legacy product price when no variants
// exist.
func (p *Product) DefaultVariantPrice() decimal.Decimal {
	if def := p.DefaultVariant(); def != nil {
		return def.Price
	}
	return p.Price
}

type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                       json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uniq_product_ml" json:"product_id"`
	ML        int             `gorm:"not null;uniqueIndex:uniq_product_ml"       json:"ml"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2)"                         json:"price"`
	IsActive  bool            `gorm:"default:true"                               json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type Combo struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey"  json:"id"`
	Title              string         `gorm:"size:150;not null"     json:"title"`
	Slug               string         `gorm:"size:160;uniqueIndex"  json:"slug"`
	DiscountPercentage int            `gorm:"not null"              json:"discount_percentage"`
	IsActive           bool           `gorm:"default:true;index"    json:"is_active"`
	IsFeatured         bool           `gorm:"default:false"         json:"is_featured"`
	Items              []ComboProduct `gorm:"foreignKey:ComboID"    json:"items,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

func (cb *Combo) BeforeCreate(tx *gorm.DB) error {
	if cb.ID == uuid.Nil {
		cb.ID = uuid.New()
	}
	return nil
}

// OriginalPrice sums the pinned variant prices. Combos created before variant
// pinning fall back to each product's default-variant price. Requires
// Items.Variant and Items.Product.Variants to be preloaded.
func (cb *Combo) OriginalPrice() decimal.Decimal {
	total := decimal.Zero
	pinned := false
	for i := range cb.Items {
		if cb.Items[i].Variant != nil {
			total = total.Add(cb.Items[i].Variant.Price)
			pinned = true
		}
	}
	if pinned {
		return total
	}
	for i := range cb.Items {
		if cb.Items[i].Product != nil {
			total = total.Add(cb.Items[i].Product.DefaultVariantPrice())
		}
	}
	return total
}

// DiscountedPrice is computed on every read, never stored, so variant price
// edits take effect immediately for anything not yet ordered.
func (cb *Combo) DiscountedPrice() decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - cb.DiscountPercentage))
	return cb.OriginalPrice().Mul(factor).Div(decimal.NewFromInt(100)).Round(2)
}

type ComboProduct struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                              json:"id"`
	ComboID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uniq_combo_product" json:"combo_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uniq_combo_product" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID"                              json:"product,omitempty"`
	VariantID *uuid.UUID      `gorm:"type:uuid"                                         json:"variant_id"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"                              json:"variant,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (cp *ComboProduct) BeforeCreate(tx *gorm.DB) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	return nil
}
