package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CartStatusActive     = "active"
	CartStatusCheckedOut = "checked_out"
	CartStatusAbandoned  = "abandoned"
)

const (
	ItemTypeProduct = "product"
	ItemTypeCombo   = "combo"
)

// Cart belongs to exactly one identity: a user once logged in, or the
// guest-id cookie before that. One active cart per identity, enforced by a
// partial unique index (see db.Migrate).
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"       json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"            json:"user_id"`
	GuestID   *string    `gorm:"size:36;index"              json:"guest_id"`
	Status    string     `gorm:"size:20;default:active;index" json:"status"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}

type CartItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"  json:"id"`
	CartID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"cart_id"`
	ItemType  string          `gorm:"size:10;not null;check:chk_cart_item_target,product_id IS NOT NULL OR combo_id IS NOT NULL" json:"item_type"`
	ProductID *uuid.UUID      `gorm:"type:uuid"             json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID"  json:"product,omitempty"`
	VariantID *uuid.UUID      `gorm:"type:uuid"             json:"variant_id"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"  json:"variant,omitempty"`
	VariantML *int            `json:"variant_ml"`
	ComboID   *uuid.UUID      `gorm:"type:uuid"             json:"combo_id"`
	Combo     *Combo          `gorm:"foreignKey:ComboID"    json:"combo,omitempty"`
	Quantity  int             `gorm:"default:1;check:quantity > 0" json:"quantity"`
	// PriceAtTime is snapshotted when the line is added, not live-recomputed.
	PriceAtTime decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_at_time"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *CartItem) Subtotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
