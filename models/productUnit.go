package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
)

type ProductUnit struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"index;not null" json:"business_id"`
	Name         string    `gorm:"size:20;not null" json:"name" binding:"required"`
	Abbreviation string    `gorm:"size:7;not null" json:"abbreviation" binding:"required"`
	Precision    Precision `gorm:"type:enum('0','1','2','3','4');default:'0';size:1;not null" json:"precision" binding:"required"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductUnit struct {
	Name         string    `json:"name" binding:"required"`
	Abbreviation string    `json:"abbreviation" binding:"required"`
	Precision    Precision `json:"precision" binding:"required"`
}

func (u ProductUnit) GetBusinessId() string {
	return u.BusinessId
}

// Digits is the fractional digit count quantities in this unit are
// entered and stored with.
func (u ProductUnit) Digits() int32 {
	return u.Precision.Digits()
}

func (input *NewProductUnit) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateUnique[ProductUnit](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if err := utils.ValidateUnique[ProductUnit](ctx, businessId, "abbreviation", input.Abbreviation, id); err != nil {
		return err
	}

	return nil
}

func CreateProductUnit(ctx context.Context, input *NewProductUnit) (*ProductUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	unit := ProductUnit{
		BusinessId:   businessId,
		Name:         input.Name,
		Abbreviation: input.Abbreviation,
		Precision:    input.Precision,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func UpdateProductUnit(ctx context.Context, id int, input *NewProductUnit) (*ProductUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	unit, err := utils.FetchModel[ProductUnit](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&unit).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Abbreviation": input.Abbreviation,
		"Precision":    input.Precision,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[ProductUnit](id); err != nil {
		return nil, err
	}
	return unit, nil
}

func DeleteProductUnit(ctx context.Context, id int) (*ProductUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[ProductUnit](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// don't delete if the unit is used by a product or a subvention line
	count, err := utils.ResourceCountWhere[Product](ctx, businessId, "unit_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by product")
	}
	count, err = utils.ResourceCountWhere[Subvention](ctx, businessId, "unit_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by subvention")
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[ProductUnit](id); err != nil {
		return nil, err
	}
	return result, nil
}

func GetProductUnit(ctx context.Context, id int) (*ProductUnit, error) {
	return GetResource[ProductUnit](ctx, id)
}

func GetProductUnits(ctx context.Context) ([]*ProductUnit, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[ProductUnit](ctx, businessId)
}
