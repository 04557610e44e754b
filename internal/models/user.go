package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:100"                 json:"name"`
	Phone     string    `gorm:"size:15"                  json:"phone"`
	IsActive  bool      `gorm:"default:true"             json:"is_active"`
	IsStaff   bool      `gorm:"default:false"            json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Address struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null"        json:"name"`
	Phone       string    `gorm:"size:15;not null"         json:"phone"`
	AddressLine string    `gorm:"not null"                 json:"address_line"`
	City        string    `gorm:"size:50;not null"         json:"city"`
	District    string    `gorm:"size:50"                  json:"district"`
	Pincode     string    `gorm:"size:10;not null"         json:"pincode"`
	IsDefault   bool      `gorm:"default:false"            json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// OTP codes are stored bcrypt-hashed and are single use.
type OTP struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email     string    `gorm:"size:255;index;not null" json:"email"`
	OTPHash   string    `gorm:"size:255;not null"     json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"        json:"expires_at"`
	IsUsed    bool      `gorm:"default:false"         json:"is_used"`
	IPAddress string    `gorm:"size:45"               json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *OTP) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *OTP) IsExpired() bool {
	return time.Now().UTC().After(o.ExpiresAt)
}

func (o *OTP) IsValid() bool {
	return !o.IsUsed && !o.IsExpired()
}
