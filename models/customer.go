package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
)

type Customer struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"index;not null" json:"business_id" binding:"required"`
	Name       string `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Email      string `gorm:"size:255" json:"email"`
	// LanguageCode is the counterparty's preferred language (BCP 47).
	// Blank means the system default.
	LanguageCode string    `gorm:"size:10" json:"language_code"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email"`
	LanguageCode string `json:"language_code"`
}

func (c Customer) GetBusinessId() string {
	return c.BusinessId
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	customer := Customer{
		BusinessId:   businessId,
		Name:         input.Name,
		Email:        input.Email,
		LanguageCode: input.LanguageCode,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Customer](ctx, businessId, id)
}
