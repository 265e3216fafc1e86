package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

// Subvention is a discount/grant line owned by exactly one invoice. It
// reduces what the customer owes without touching the invoice's own tax
// or total computation. Deleting the invoice deletes its subventions.
type Subvention struct {
	ID          int      `gorm:"primary_key" json:"id"`
	BusinessId  string   `gorm:"index;not null" json:"business_id" binding:"required"`
	InvoiceId   int      `gorm:"index;not null" json:"invoice_id" binding:"required"`
	Invoice     *Invoice `gorm:"foreignKey:InvoiceId" json:"-"`
	ProductId   int      `gorm:"index;not null" json:"product_id" binding:"required"`
	Product     *Product `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Description string   `gorm:"type:text;not null" json:"description" binding:"required"`
	// Unit derives from the chosen product and is read-only once set.
	UnitId     int             `gorm:"not null" json:"unit_id" binding:"required"`
	Unit       *ProductUnit    `gorm:"foreignKey:UnitId" json:"unit,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	CurrencyId int             `gorm:"not null" json:"currency_id" binding:"required"`
	Currency   *Currency       `gorm:"foreignKey:CurrencyId" json:"-"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSubvention struct {
	InvoiceId   int             `json:"invoice_id" binding:"required"`
	ProductId   int             `json:"product_id" binding:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CurrencyId  int             `json:"currency_id"`
}

func (s Subvention) GetBusinessId() string {
	return s.BusinessId
}

// UnitDigits is the fractional digit count for the quantity; 2 when no
// unit is set yet.
func (s *Subvention) UnitDigits() int32 {
	if s.Unit != nil {
		return s.Unit.Digits()
	}
	return 2
}

// CurrencyDigits is the fractional digit count for the unit price and
// amount; 2 when no currency is set yet.
func (s *Subvention) CurrencyDigits() int32 {
	if s.Currency != nil {
		return s.Currency.Digits()
	}
	return 2
}

// Amount is the line's derived monetary amount: quantity × unit price,
// rounded by the line currency. It carries no independent state — any
// stored copy of it is advisory only. Zero while any factor is missing,
// which keeps aggregation total-safe.
func (s *Subvention) Amount() decimal.Decimal {
	if s.Currency == nil || s.Quantity.IsZero() || s.UnitPrice.IsZero() {
		return decimal.Zero
	}
	return s.Currency.Round(s.Quantity.Mul(s.UnitPrice))
}

// counterpartyLanguage resolves the owning invoice's customer language
// preference; blank falls back to the system default.
func (s *Subvention) counterpartyLanguage(ctx context.Context) string {
	invoice := s.Invoice
	if invoice == nil && s.InvoiceId > 0 {
		businessId, ok := utils.GetBusinessIdFromContext(ctx)
		if !ok || businessId == "" {
			return ""
		}
		loaded, err := utils.FetchModel[Invoice](ctx, businessId, s.InvoiceId)
		if err != nil {
			return ""
		}
		invoice = loaded
	}
	if invoice == nil {
		return ""
	}
	customer := invoice.Customer
	if customer == nil && invoice.CustomerId > 0 {
		loaded, err := GetCustomer(ctx, invoice.CustomerId)
		if err != nil {
			return ""
		}
		customer = loaded
	}
	if customer == nil {
		return ""
	}
	return customer.LanguageCode
}

// OnChangeProduct applies the derived updates of choosing a product:
// the description defaults to the product's localized display name when
// still empty, the unit becomes the product's default unit, and the
// unit price becomes the product's list price in that unit. Description
// and unit price are suggestions the caller may override afterwards;
// the unit is not.
func (s *Subvention) OnChangeProduct(ctx context.Context) error {
	if s.ProductId == 0 {
		return nil
	}
	product, err := GetProduct(ctx, s.ProductId)
	if err != nil {
		return errors.New("product not found")
	}
	if err := validateSubventionProduct(product); err != nil {
		return err
	}

	if s.Description == "" {
		s.Description = product.DisplayName(s.counterpartyLanguage(ctx))
	}
	s.Product = product
	s.UnitId = product.UnitId
	s.Unit = product.Unit
	s.UnitPrice = product.SalesPrice
	return nil
}

// validate enforces the persistence-level constraints: required
// references, non-negative quantity, and the subvention product domain.
// The UI-level selection filter is advisory; this check is authoritative
// and also rejects non-interactive callers.
func (s *Subvention) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateStruct(s.flat()); err != nil {
		return err
	}
	if s.Quantity.IsNegative() {
		return errors.New("quantity must not be negative")
	}
	if err := utils.ValidateResourceId[Invoice](ctx, businessId, s.InvoiceId); err != nil {
		return errors.New("invoice not found")
	}
	if err := utils.ValidateResourceId[ProductUnit](ctx, businessId, s.UnitId); err != nil {
		return errors.New("unit not found")
	}
	if err := utils.ValidateResourceId[Currency](ctx, businessId, s.CurrencyId); err != nil {
		return errors.New("currency not found")
	}
	product, err := GetProduct(ctx, s.ProductId)
	if err != nil {
		return errors.New("product not found")
	}
	return validateSubventionProduct(product)
}

// flat strips loaded references so required-field validation only sees
// the line's own columns.
func (s *Subvention) flat() *Subvention {
	flat := *s
	flat.Invoice = nil
	flat.Product = nil
	flat.Unit = nil
	flat.Currency = nil
	return &flat
}

// SubventionFactory creates and edits subvention lines. The unit price
// precision is injected here instead of being read from configuration
// inside the model.
type SubventionFactory struct {
	unitPriceDigits int32
}

func NewSubventionFactory(unitPriceDigits int32) SubventionFactory {
	if unitPriceDigits <= 0 {
		unitPriceDigits = config.DefaultUnitPriceDigits
	}
	return SubventionFactory{unitPriceDigits: unitPriceDigits}
}

// UnitPriceDigits is the precision unit prices are quantized to.
func (f SubventionFactory) UnitPriceDigits() int32 {
	return f.unitPriceDigits
}

// applyDefaults fills the currency from the active company when the
// caller supplied none. No active company is not an error: the field
// stays unset and required-field validation rejects it at save time.
func (f SubventionFactory) applyDefaults(ctx context.Context, s *Subvention) {
	if s.CurrencyId > 0 {
		return
	}
	currency, err := ActiveBusinessCurrency(ctx)
	if err != nil || currency == nil {
		return
	}
	s.CurrencyId = currency.ID
	s.Currency = currency
}

// quantize snaps quantity to the unit's digit count and the unit price
// to the configured price precision.
func (f SubventionFactory) quantize(s *Subvention) {
	s.Quantity = s.Quantity.Round(s.UnitDigits())
	s.UnitPrice = s.UnitPrice.Round(f.unitPriceDigits)
}

func fetchEditableInvoice(ctx context.Context, businessId string, invoiceId int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, businessId, invoiceId, "Customer", "Currency")
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	if !invoice.editable() {
		return nil, errors.New("subvention lines can only be edited while the invoice is draft")
	}
	return invoice, nil
}

func (f SubventionFactory) Create(ctx context.Context, input *NewSubvention) (*Subvention, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	release, err := utils.ObtainInvoiceEditLock(ctx, businessId, input.InvoiceId, "models", "CreateSubvention")
	if err != nil {
		return nil, err
	}
	defer release()

	invoice, err := fetchEditableInvoice(ctx, businessId, input.InvoiceId)
	if err != nil {
		return nil, err
	}

	subvention := Subvention{
		BusinessId:  businessId,
		InvoiceId:   invoice.ID,
		Invoice:     invoice,
		ProductId:   input.ProductId,
		Description: input.Description,
		Quantity:    input.Quantity,
		CurrencyId:  input.CurrencyId,
	}
	f.applyDefaults(ctx, &subvention)

	if err := subvention.OnChangeProduct(ctx); err != nil {
		return nil, err
	}
	// the product's list price is a suggestion; an explicit price wins
	if !input.UnitPrice.IsZero() {
		subvention.UnitPrice = input.UnitPrice
	}
	f.quantize(&subvention)

	if err := subvention.validate(ctx, businessId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Omit("Invoice", "Product", "Unit", "Currency").
		Create(&subvention).Error
	if err != nil {
		return nil, err
	}
	return &subvention, nil
}

func (f SubventionFactory) Update(ctx context.Context, id int, input *NewSubvention) (*Subvention, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	subvention, err := utils.FetchModel[Subvention](ctx, businessId, id, "Unit", "Currency")
	if err != nil {
		return nil, err
	}

	release, err := utils.ObtainInvoiceEditLock(ctx, businessId, subvention.InvoiceId, "models", "UpdateSubvention")
	if err != nil {
		return nil, err
	}
	defer release()

	invoice, err := fetchEditableInvoice(ctx, businessId, subvention.InvoiceId)
	if err != nil {
		return nil, err
	}
	subvention.Invoice = invoice

	if input.Description != "" {
		subvention.Description = input.Description
	}
	if input.ProductId > 0 && input.ProductId != subvention.ProductId {
		// re-derive description/unit/price from the new product; the
		// description is only refilled when cleared
		subvention.ProductId = input.ProductId
		subvention.Description = input.Description
		if err := subvention.OnChangeProduct(ctx); err != nil {
			return nil, err
		}
	}
	subvention.Quantity = input.Quantity
	if !input.UnitPrice.IsZero() {
		subvention.UnitPrice = input.UnitPrice
	}
	if input.CurrencyId > 0 && input.CurrencyId != subvention.CurrencyId {
		currency, err := utils.FetchModel[Currency](ctx, businessId, input.CurrencyId)
		if err != nil {
			return nil, errors.New("currency not found")
		}
		subvention.CurrencyId = currency.ID
		subvention.Currency = currency
	}
	f.quantize(subvention)

	if err := subvention.validate(ctx, businessId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&subvention).Updates(map[string]interface{}{
		"ProductId":   subvention.ProductId,
		"Description": subvention.Description,
		"UnitId":      subvention.UnitId,
		"Quantity":    subvention.Quantity,
		"UnitPrice":   subvention.UnitPrice,
		"CurrencyId":  subvention.CurrencyId,
	}).Error
	if err != nil {
		return nil, err
	}
	return subvention, nil
}

func DeleteSubvention(ctx context.Context, id int) (*Subvention, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	subvention, err := utils.FetchModel[Subvention](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	release, err := utils.ObtainInvoiceEditLock(ctx, businessId, subvention.InvoiceId, "models", "DeleteSubvention")
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := fetchEditableInvoice(ctx, businessId, subvention.InvoiceId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&subvention).Error
	if err != nil {
		return nil, err
	}
	return subvention, nil
}

// GetSubventions lists an invoice's subvention lines with the references
// needed to compute amounts.
func GetSubventions(ctx context.Context, invoiceId int) ([]*Subvention, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var subventions []*Subvention
	err := db.WithContext(ctx).
		Where("business_id = ? AND invoice_id = ?", businessId, invoiceId).
		Preload("Unit").Preload("Currency").
		Find(&subventions).Error
	if err != nil {
		return nil, err
	}
	return subventions, nil
}
