package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusNew        = "new"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

const (
	PaymentMethodRazorpay = "razorpay"
	PaymentMethodCOD      = "cod"
)

// Order is an immutable snapshot of a cart at checkout time. Only the two
// status fields and the razorpay payment fields change after creation.
type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"          json:"id"`
	OrderNumber string     `gorm:"size:20;uniqueIndex"           json:"order_number"`
	UserID      *uuid.UUID `gorm:"type:uuid;index"               json:"user_id"`
	GuestID     *string    `gorm:"size:36;index"                 json:"guest_id"`
	CartID      *uuid.UUID `gorm:"type:uuid;index"               json:"cart_id"`

	PaymentMethod    string `gorm:"size:20;not null"              json:"payment_method"`
	PaymentStatus    string `gorm:"size:20;default:pending;index" json:"payment_status"`
	PaymentReference string `gorm:"size:255"                      json:"payment_reference"`

	RazorpayOrderID   *string `gorm:"size:255;uniqueIndex" json:"razorpay_order_id"`
	RazorpayPaymentID string  `gorm:"size:255"             json:"razorpay_payment_id"`
	RazorpaySignature string  `gorm:"size:255"             json:"-"`

	CustomerName string `gorm:"size:100;not null" json:"customer_name"`
	Phone        string `gorm:"size:15;not null"  json:"phone"`
	AddressLine  string `gorm:"not null"          json:"address_line"`
	City         string `gorm:"size:50;not null"  json:"city"`
	District     string `gorm:"size:50"           json:"district"`
	Pincode      string `gorm:"size:10;not null"  json:"pincode"`

	Status string `gorm:"size:20;default:new;index" json:"status"`

	TotalAmount          decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	AdvancePaymentAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"advance_payment_amount"`
	CODBalanceAmount     decimal.Decimal `gorm:"type:decimal(10,2)" json:"cod_balance_amount"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = fmt.Sprintf("SUL-%s-%s",
			time.Now().UTC().Format("20060102"), o.ID.String()[:6])
	}
	return nil
}

type OrderItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ItemType string    `gorm:"size:10;not null;check:chk_order_item_target,product_id IS NOT NULL OR combo_id IS NOT NULL" json:"item_type"`

	ProductID *uuid.UUID      `gorm:"type:uuid"            json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ComboID   *uuid.UUID      `gorm:"type:uuid"            json:"combo_id"`
	Combo     *Combo          `gorm:"foreignKey:ComboID"   json:"combo,omitempty"`
	VariantID *uuid.UUID      `gorm:"type:uuid"            json:"variant_id"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	VariantML *int            `json:"variant_ml"`

	Quantity int `gorm:"default:1" json:"quantity"`
	// PriceAtPurchase is a permanent historical snapshot, independent of any
	// later catalog price change.
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_at_purchase"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) TotalPrice() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
