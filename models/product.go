package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type Product struct {
	ID          int         `gorm:"primary_key" json:"id"`
	BusinessId  string      `gorm:"index;not null" json:"business_id" binding:"required"`
	Name        string      `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string      `gorm:"type:text" json:"description"`
	Type        ProductType `gorm:"type:enum('S','G','C','V','I','U');default:S" json:"type"`
	// UnitId is the product's default unit of measure. Subvention lines
	// always price in this unit.
	UnitId int          `json:"product_unit_id"`
	Unit   *ProductUnit `gorm:"foreignKey:UnitId" json:"unit,omitempty"`
	// SalesPrice is the list price per default unit.
	SalesPrice   decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	Translations []ProductTranslation `gorm:"foreignKey:ProductId" json:"translations,omitempty"`
	IsActive     *bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductTranslation holds a localized display name for one language.
type ProductTranslation struct {
	ID           int    `gorm:"primary_key" json:"id"`
	ProductId    int    `gorm:"index;not null" json:"product_id" binding:"required"`
	LanguageCode string `gorm:"size:10;not null" json:"language_code" binding:"required"`
	Name         string `gorm:"size:100;not null" json:"name" binding:"required"`
}

type NewProduct struct {
	Name         string                  `json:"name" binding:"required"`
	Description  string                  `json:"description"`
	Type         ProductType             `json:"type"`
	UnitId       int                     `json:"product_unit_id"`
	SalesPrice   decimal.Decimal         `json:"sales_price"`
	Translations []NewProductTranslation `json:"translations"`
}

type NewProductTranslation struct {
	LanguageCode string `json:"language_code" binding:"required"`
	Name         string `json:"name" binding:"required"`
}

func (p Product) GetBusinessId() string {
	return p.BusinessId
}

// DisplayName resolves the product's localized display name for the
// given language code, falling back to the base name when the code is
// blank, unparseable, or no translation matches closely enough.
func (p *Product) DisplayName(languageCode string) string {
	if languageCode == "" || len(p.Translations) == 0 {
		return p.Name
	}
	want, err := language.Parse(languageCode)
	if err != nil {
		return p.Name
	}

	tags := make([]language.Tag, 0, len(p.Translations))
	names := make([]string, 0, len(p.Translations))
	for _, tr := range p.Translations {
		tag, err := language.Parse(tr.LanguageCode)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, tr.Name)
	}
	if len(tags) == 0 {
		return p.Name
	}

	_, index, confidence := language.NewMatcher(tags).Match(want)
	if confidence < language.High {
		return p.Name
	}
	return names[index]
}

// ScopeInvoiceLineProducts narrows a product query to products selectable
// on an ordinary invoice line. Subvention products must never appear
// there: they would count once as revenue and once as a deduction.
func ScopeInvoiceLineProducts(db *gorm.DB) *gorm.DB {
	return db.Where("type <> ?", ProductTypeSubvention)
}

// ScopeSubventionProducts narrows a product query to subvention products,
// the only ones selectable on a subvention line.
func ScopeSubventionProducts(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", ProductTypeSubvention)
}

// validateInvoiceLineProduct is the authoritative counterpart of
// ScopeInvoiceLineProducts, enforced at save time even for callers that
// bypass the selection filter.
func validateInvoiceLineProduct(product *Product) error {
	if product.Type == ProductTypeSubvention {
		return errors.New("subvention product cannot be used on an invoice line")
	}
	return nil
}

// validateSubventionProduct is the authoritative counterpart of
// ScopeSubventionProducts.
func validateSubventionProduct(product *Product) error {
	if product.Type != ProductTypeSubvention {
		return errors.New("product is not a subvention product")
	}
	return nil
}

func (input *NewProduct) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Product](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if input.UnitId > 0 {
		if err := utils.ValidateResourceId[ProductUnit](ctx, businessId, input.UnitId); err != nil {
			return errors.New("product unit not found")
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	productType := input.Type
	if productType == "" {
		productType = ProductTypeSingle
	}

	translations := make([]ProductTranslation, 0, len(input.Translations))
	for _, tr := range input.Translations {
		translations = append(translations, ProductTranslation{
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
		})
	}

	product := Product{
		BusinessId:   businessId,
		Name:         input.Name,
		Description:  input.Description,
		Type:         productType,
		UnitId:       input.UnitId,
		SalesPrice:   input.SalesPrice,
		Translations: translations,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&product).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
		"UnitId":      input.UnitId,
		"SalesPrice":  input.SalesPrice,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Product](id); err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return GetResource[Product](ctx, id, "Translations", "Unit")
}

func GetProducts(ctx context.Context) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Product](ctx, businessId, "Unit")
}

// GetInvoiceLineProducts lists the product domain for ordinary invoice
// lines. The subvention exclusion is a standing part of the query, not a
// caller-supplied filter.
func GetInvoiceLineProducts(ctx context.Context) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).
		Scopes(ScopeInvoiceLineProducts).
		Where("business_id = ?", businessId).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetSubventionProducts lists the product domain for subvention lines.
func GetSubventionProducts(ctx context.Context) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).
		Scopes(ScopeSubventionProducts).
		Where("business_id = ?", businessId).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
