package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

type Currency struct {
	ID            int           `gorm:"primary_key" json:"id"`
	BusinessId    string        `gorm:"index;not null" json:"business_id" binding:"required"`
	Symbol        string        `gorm:"index;size:3;not null" json:"symbol" binding:"required"`
	Name          string        `gorm:"index;size:100;not null" json:"name" binding:"required"`
	DecimalPlaces DecimalPlaces `gorm:"type:enum('0','2','3');default:'2';size:1;not null" json:"decimal_places" binding:"required"`
	IsActive      *bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCurrency struct {
	Symbol        string        `json:"symbol" binding:"required"`
	Name          string        `json:"name" binding:"required"`
	DecimalPlaces DecimalPlaces `json:"decimal_places" binding:"required"`
}

func (c Currency) GetBusinessId() string {
	return c.BusinessId
}

// Digits is the fractional digit count monetary values in this currency
// are quantized to.
func (c Currency) Digits() int32 {
	return c.DecimalPlaces.Digits()
}

// Round quantizes a monetary value to the currency's digit count,
// half away from zero.
func (c Currency) Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(c.Digits())
}

// validate input for both create & update. (id = 0 for create)

func (input *NewCurrency) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Currency](ctx, businessId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Currency](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// symbol
	if err := utils.ValidateUnique[Currency](ctx, businessId, "symbol", input.Symbol, id); err != nil {
		return err
	}
	return nil
}

func CreateCurrency(ctx context.Context, input *NewCurrency) (*Currency, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	currency := Currency{
		BusinessId:    businessId,
		Symbol:        input.Symbol,
		Name:          input.Name,
		DecimalPlaces: input.DecimalPlaces,
		IsActive:      utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&currency).Error
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func UpdateCurrency(ctx context.Context, id int, input *NewCurrency) (*Currency, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	currency, err := utils.FetchModel[Currency](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&currency).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Symbol":        input.Symbol,
		"DecimalPlaces": input.DecimalPlaces,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Currency](id); err != nil {
		return nil, err
	}

	return currency, nil
}

func DeleteCurrency(ctx context.Context, id int) (*Currency, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[Currency](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check if the currency is used
	count, err := utils.ResourceCountWhere[Business](ctx, "", "base_currency_id = ? AND id = ?", id, businessId)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("currency has been used in business")
	}
	count, err = utils.ResourceCountWhere[Invoice](ctx, businessId, "currency_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("currency has been used in invoice")
	}
	count, err = utils.ResourceCountWhere[Subvention](ctx, businessId, "currency_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("currency has been used in subvention")
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Currency](id); err != nil {
		return nil, err
	}

	return result, nil
}

func GetCurrency(ctx context.Context, id int) (*Currency, error) {

	return GetResource[Currency](ctx, id)
}

func GetCurrencies(ctx context.Context) ([]*Currency, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Currency](ctx, businessId)
}
