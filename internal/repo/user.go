package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
)

func (r *GormRepo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	u, err := r.UserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.User{Email: email, IsActive: true}
	if err := r.DB.WithContext(ctx).Create(fresh).Error; err != nil {
		if u, ferr := r.UserByEmail(ctx, email); ferr == nil {
			return u, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Save(u).Error
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addrs []models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").Find(&addrs).Error; err != nil {
		return nil, err
	}
	return addrs, nil
}

func (r *GormRepo) AddressByID(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).
		First(&a, "id = ? AND user_id = ?", addressID, userID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAddress creates or updates; setting a default unsets the user's other
// defaults in the same transaction.
func (r *GormRepo) SaveAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND id <> ?", a.UserID, a.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(a).Error
	})
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateOTP invalidates any outstanding codes for the email before inserting
// the new one, so only the latest code is ever usable.
func (r *GormRepo) CreateOTP(ctx context.Context, otp *models.OTP) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTP{}).
			Where("email = ? AND is_used = ?", otp.Email, false).
			Update("is_used", true).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

func (r *GormRepo) LatestActiveOTP(ctx context.Context, email string) (*models.OTP, error) {
	var otp models.OTP
	if err := r.DB.WithContext(ctx).
		Where("email = ? AND is_used = ? AND expires_at > ?", email, false, time.Now().UTC()).
		Order("created_at DESC").First(&otp).Error; err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *GormRepo) MarkOTPUsed(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.OTP{}).
		Where("id = ?", id).Update("is_used", true).Error
}
