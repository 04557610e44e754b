package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

type AccountService struct {
	Repo *repo.GormRepo
}

func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	return user, err
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, phone string) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Phone = phone
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

type AddressInput struct {
	Name        string
	Phone       string
	AddressLine string
	City        string
	District    string
	Pincode     string
	IsDefault   bool
}

func (in *AddressInput) validate() error {
	switch {
	case in.Name == "":
		return fmt.Errorf("name is required: %w", ErrValidation)
	case in.Phone == "":
		return fmt.Errorf("phone is required: %w", ErrValidation)
	case in.AddressLine == "":
		return fmt.Errorf("address_line is required: %w", ErrValidation)
	case in.City == "":
		return fmt.Errorf("city is required: %w", ErrValidation)
	case in.Pincode == "":
		return fmt.Errorf("pincode is required: %w", ErrValidation)
	}
	return nil
}

func (s *AccountService) AddAddress(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.District == "" {
		in.District = "Kasaragod"
	}

	a := &models.Address{
		UserID:      userID,
		Name:        in.Name,
		Phone:       in.Phone,
		AddressLine: in.AddressLine,
		City:        in.City,
		District:    in.District,
		Pincode:     in.Pincode,
		IsDefault:   in.IsDefault,
	}
	if err := s.Repo.SaveAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AccountService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, in AddressInput) (*models.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a, err := s.Repo.AddressByID(ctx, userID, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("address: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	a.Name = in.Name
	a.Phone = in.Phone
	a.AddressLine = in.AddressLine
	a.City = in.City
	if in.District != "" {
		a.District = in.District
	}
	a.Pincode = in.Pincode
	a.IsDefault = in.IsDefault
	if err := s.Repo.SaveAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AccountService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	err := s.Repo.DeleteAddress(ctx, userID, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("address: %w", ErrNotFound)
	}
	return err
}
