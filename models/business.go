package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/google/uuid"
)

type Business struct {
	ID             uuid.UUID `gorm:"primary_key" json:"id"`
	Name           string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ContactName    string    `gorm:"size:100" json:"contact_name"`
	Email          string    `gorm:"size:255" json:"email"`
	Country        string    `gorm:"size:100"  json:"country"`
	BaseCurrencyId int       `json:"base_currency_id"`
	Timezone       string    `gorm:"size:50" json:"timezone"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name           string `json:"name" binding:"required"`
	ContactName    string `json:"contact_name"`
	Email          string `json:"email" binding:"required"`
	Country        string `json:"country"`
	BaseCurrencyId int    `json:"base_currency_id"`
	Timezone       string `json:"timezone"`
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	business := Business{
		ID:             uuid.New(),
		Name:           input.Name,
		ContactName:    input.ContactName,
		Email:          input.Email,
		Country:        input.Country,
		BaseCurrencyId: input.BaseCurrencyId,
		Timezone:       input.Timezone,
		IsActive:       utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusiness(ctx context.Context, id string) (*Business, error) {
	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).First(&business, "id = ?", id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &business, nil
}

// ActiveBusinessCurrency resolves the active company's base currency from
// the request context. Returns nil without error when no business is in
// scope or the business has no base currency; defaulting then falls back
// to the caller.
func ActiveBusinessCurrency(ctx context.Context) (*Currency, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, nil
	}
	business, err := GetBusiness(ctx, businessId)
	if err != nil {
		return nil, nil
	}
	if business.BaseCurrencyId == 0 {
		return nil, nil
	}
	return GetCurrency(ctx, business.BaseCurrencyId)
}
