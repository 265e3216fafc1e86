package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID             int           `gorm:"primary_key" json:"id"`
	BusinessId     string        `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerId     int           `gorm:"index;not null" json:"customer_id" binding:"required"`
	Customer       *Customer     `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
	InvoiceNumber  string        `gorm:"size:255;not null" json:"invoice_number" binding:"required"`
	InvoiceDate    time.Time     `gorm:"not null" json:"invoice_date" binding:"required"`
	CurrencyId     int           `gorm:"not null" json:"currency_id" binding:"required"`
	Currency       *Currency     `gorm:"foreignKey:CurrencyId" json:"currency,omitempty"`
	CurrentStatus  InvoiceStatus `gorm:"type:enum('Draft','Confirmed','Void');not null" json:"current_status" binding:"required"`
	IsTaxInclusive *bool         `gorm:"not null;default:false" json:"is_tax_inclusive"`

	Details     []InvoiceDetail `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE" json:"details"`
	Subventions []Subvention    `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE" json:"subventions"`

	InvoiceSubtotal            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"invoice_subtotal"`
	InvoiceTotalDiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"invoice_total_discount_amount"`
	InvoiceTotalTaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"invoice_total_tax_amount"`
	InvoiceTotalAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"invoice_total_amount"`

	// Derived, never persisted as authoritative values. Recomputed on
	// read and on every relevant in-memory edit.
	SubventionAmount decimal.Decimal `gorm:"-" json:"subvention_amount"`
	CustomerAmount   decimal.Decimal `gorm:"-" json:"customer_amount"`

	// hasTotals marks whether the invoice's own totals have been
	// computed for this in-memory instance. Rows loaded from the db
	// always have stored totals.
	hasTotals bool

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceDetail struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	InvoiceId            int             `gorm:"index;not null" json:"invoice_id"`
	ProductId            int             `gorm:"index" json:"product_id"`
	Name                 string          `gorm:"size:100" json:"name" binding:"required"`
	Description          string          `gorm:"size:255;default:null" json:"description"`
	DetailQty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_qty" binding:"required"`
	DetailUnitRate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_unit_rate" binding:"required"`
	DetailDiscount       decimal.Decimal `json:"detail_discount"`
	DetailDiscountType   *DiscountType   `gorm:"type:enum('P', 'A');default:null" json:"detail_discount_type"`
	DetailDiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_discount_amount"`
	DetailTaxId          int             `gorm:"default:null" json:"detail_tax_id"`
	DetailTax            *Tax            `gorm:"foreignKey:DetailTaxId" json:"detail_tax,omitempty"`
	DetailTaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_tax_amount"`
	DetailTotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_total_amount"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	CustomerId     int                `json:"customer_id" binding:"required"`
	InvoiceNumber  string             `json:"invoice_number" binding:"required"`
	InvoiceDate    time.Time          `json:"invoice_date" binding:"required"`
	CurrencyId     int                `json:"currency_id" binding:"required"`
	IsTaxInclusive *bool              `json:"is_tax_inclusive"`
	Details        []NewInvoiceDetail `json:"details"`
}

type NewInvoiceDetail struct {
	ProductId          int             `json:"product_id"`
	Name               string          `json:"name" binding:"required"`
	Description        string          `json:"description"`
	DetailQty          decimal.Decimal `json:"detail_qty" binding:"required"`
	DetailUnitRate     decimal.Decimal `json:"detail_unit_rate" binding:"required"`
	DetailDiscount     decimal.Decimal `json:"detail_discount"`
	DetailDiscountType *DiscountType   `json:"detail_discount_type"`
	DetailTaxId        int             `json:"detail_tax_id"`
}

// InvoiceDerivedAmounts is the snapshot returned by a recompute; the
// editing layer applies it after each mutation.
type InvoiceDerivedAmounts struct {
	SubventionAmount decimal.Decimal `json:"subvention_amount"`
	CustomerAmount   decimal.Decimal `json:"customer_amount"`
}

func (iv Invoice) GetBusinessId() string {
	return iv.BusinessId
}

// AfterFind marks stored totals as computed for loaded rows.
func (iv *Invoice) AfterFind(tx *gorm.DB) error {
	iv.hasTotals = true
	return nil
}

// TotalsComputed reports whether the invoice's own total is known for
// this in-memory instance.
func (iv *Invoice) TotalsComputed() bool {
	return iv.hasTotals
}

func (iv *Invoice) editable() bool {
	return iv.CurrentStatus == InvoiceStatusDraft
}

func (iv *Invoice) roundCurrency(value decimal.Decimal) decimal.Decimal {
	if iv.Currency != nil {
		return iv.Currency.Round(value)
	}
	return value.Round(2)
}

// CalculateDiscountAndTax recomputes the detail's derived columns from
// quantity, rate, discount and tax rate.
func (item *InvoiceDetail) CalculateDiscountAndTax(isTaxInclusive bool) {

	detailAmount := item.DetailQty.Mul(item.DetailUnitRate)

	var discountAmount decimal.Decimal
	if item.DetailDiscountType != nil {
		discountAmount = utils.CalculateDiscountAmount(detailAmount, item.DetailDiscount, string(*item.DetailDiscountType))
	}
	item.DetailDiscountAmount = discountAmount

	item.DetailTotalAmount = detailAmount.Sub(item.DetailDiscountAmount)

	var taxAmount decimal.Decimal
	if item.DetailTax != nil {
		taxAmount = utils.CalculateTaxAmountFromRate(item.DetailTax.Rate, item.DetailTotalAmount, isTaxInclusive)
	}
	item.DetailTaxAmount = taxAmount
}

// CalculateTotals recomputes the invoice's own stored totals from its
// detail lines. Subvention aggregation never feeds into these: the
// invoice total (and its taxes) are independent of subventions.
func (iv *Invoice) CalculateTotals() {

	isTaxInclusive := iv.IsTaxInclusive != nil && *iv.IsTaxInclusive

	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range iv.Details {
		iv.Details[i].CalculateDiscountAndTax(isTaxInclusive)
		subtotal = subtotal.Add(iv.Details[i].DetailTotalAmount)
		discountTotal = discountTotal.Add(iv.Details[i].DetailDiscountAmount)
		taxTotal = taxTotal.Add(iv.Details[i].DetailTaxAmount)
	}

	iv.InvoiceSubtotal = subtotal
	iv.InvoiceTotalDiscountAmount = discountTotal
	iv.InvoiceTotalTaxAmount = taxTotal
	total := subtotal
	if !isTaxInclusive {
		total = total.Add(taxTotal)
	}
	iv.InvoiceTotalAmount = iv.roundCurrency(total)
	iv.hasTotals = true
}

// OnChangeSubventions recomputes the two derived fields from the current
// in-memory subvention collection. Lines whose amount is not yet
// computable contribute zero. When the invoice's own total is not known
// both fields stay at zero.
func (iv *Invoice) OnChangeSubventions() InvoiceDerivedAmounts {

	iv.SubventionAmount = decimal.Zero
	iv.CustomerAmount = decimal.Zero

	if iv.hasTotals {
		sum := decimal.Zero
		for i := range iv.Subventions {
			sum = sum.Add(iv.Subventions[i].Amount())
		}
		iv.SubventionAmount = iv.roundCurrency(sum)
		iv.CustomerAmount = iv.InvoiceTotalAmount.Sub(iv.SubventionAmount)
	}

	return InvoiceDerivedAmounts{
		SubventionAmount: iv.SubventionAmount,
		CustomerAmount:   iv.CustomerAmount,
	}
}

// OnChangeLines handles an ordinary line edit: both derived fields are
// reset first, then the invoice's own totals are recomputed, and only
// then is subvention aggregation re-applied. Aggregating before the
// total recompute would base customer_amount on a stale total.
func (iv *Invoice) OnChangeLines() InvoiceDerivedAmounts {

	iv.SubventionAmount = decimal.Zero
	iv.CustomerAmount = decimal.Zero

	iv.CalculateTotals()

	return iv.OnChangeSubventions()
}

// ComputeDerivedAmounts is the batch (query-time) form: each invoice's
// subvention amounts are summed and customer_amount derived from the
// stored total. Invoices without a known total report zero for both.
func ComputeDerivedAmounts(invoices []*Invoice) {
	for _, invoice := range invoices {
		invoice.OnChangeSubventions()
	}
}

func (input *NewInvoice) validate(ctx context.Context, businessId string) error {
	// exists customer
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	// exists currency
	if err := utils.ValidateResourceId[Currency](ctx, businessId, input.CurrencyId); err != nil {
		return errors.New("currency not found")
	}
	// unique invoice number
	if err := utils.ValidateUnique[Invoice](ctx, businessId, "invoice_number", input.InvoiceNumber, 0); err != nil {
		return err
	}
	// ordinary lines must not carry subvention products. The selection
	// scope hides them; this is the authoritative save-time check.
	for _, detail := range input.Details {
		if detail.ProductId > 0 {
			product, err := GetProduct(ctx, detail.ProductId)
			if err != nil {
				return errors.New("product not found")
			}
			if err := validateInvoiceLineProduct(product); err != nil {
				return err
			}
		}
	}
	return nil
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	currency, err := utils.FetchModel[Currency](ctx, businessId, input.CurrencyId)
	if err != nil {
		return nil, errors.New("currency not found")
	}

	isTaxInclusive := input.IsTaxInclusive
	if isTaxInclusive == nil {
		isTaxInclusive = utils.NewFalse()
	}

	details := make([]InvoiceDetail, 0, len(input.Details))
	for _, d := range input.Details {
		detail := InvoiceDetail{
			ProductId:          d.ProductId,
			Name:               d.Name,
			Description:        d.Description,
			DetailQty:          d.DetailQty,
			DetailUnitRate:     d.DetailUnitRate,
			DetailDiscount:     d.DetailDiscount,
			DetailDiscountType: d.DetailDiscountType,
			DetailTaxId:        d.DetailTaxId,
		}
		if d.DetailTaxId > 0 {
			tax, err := GetTax(ctx, d.DetailTaxId)
			if err != nil {
				return nil, errors.New("tax not found")
			}
			detail.DetailTax = tax
		}
		details = append(details, detail)
	}

	invoice := Invoice{
		BusinessId:     businessId,
		CustomerId:     input.CustomerId,
		InvoiceNumber:  input.InvoiceNumber,
		InvoiceDate:    input.InvoiceDate,
		CurrencyId:     input.CurrencyId,
		Currency:       currency,
		CurrentStatus:  InvoiceStatusDraft,
		IsTaxInclusive: isTaxInclusive,
		Details:        details,
	}
	invoice.CalculateTotals()

	// detach loaded references so Create only writes the invoice and its
	// detail rows
	taxes := make([]*Tax, len(invoice.Details))
	for i := range invoice.Details {
		taxes[i] = invoice.Details[i].DetailTax
		invoice.Details[i].DetailTax = nil
	}
	invoice.Currency = nil

	db := config.GetDB()
	err = db.WithContext(ctx).Create(&invoice).Error
	for i := range invoice.Details {
		invoice.Details[i].DetailTax = taxes[i]
	}
	invoice.Currency = currency
	if err != nil {
		return nil, err
	}
	invoice.OnChangeSubventions()
	return &invoice, nil
}

// invoicePreloads is the association set needed to recompute derived
// amounts on a loaded invoice.
var invoicePreloads = []string{"Currency", "Customer", "Details", "Details.DetailTax", "Subventions", "Subventions.Unit", "Subventions.Currency"}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	invoice, err := utils.FetchModel[Invoice](ctx, businessId, id, invoicePreloads...)
	if err != nil {
		return nil, err
	}
	invoice.OnChangeSubventions()
	return invoice, nil
}

// GetInvoicesWithDerivedAmounts lists invoices with subvention_amount and
// customer_amount computed for each.
func GetInvoicesWithDerivedAmounts(ctx context.Context) ([]*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	invoices, err := utils.FetchAllModels[Invoice](ctx, businessId, invoicePreloads...)
	if err != nil {
		return nil, err
	}
	ComputeDerivedAmounts(invoices)
	return invoices, nil
}

// Derived amount fields are not stored columns; filtering and ordering on
// them delegates to the stored invoice total, the same expression the
// total itself is searched by. This is a best-effort approximation, not
// sum-of-subventions filtering.
var derivedAmountSearchColumns = map[string]string{
	"subvention_amount": "invoice_total_amount",
	"customer_amount":   "invoice_total_amount",
	"total_amount":      "invoice_total_amount",
}

var searchOperators = map[string]bool{
	"=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// DerivedAmountSearchColumn maps a derived field name to the stored
// column its filters are rewritten against.
func DerivedAmountSearchColumn(field string) (string, error) {
	column, ok := derivedAmountSearchColumns[field]
	if !ok {
		return "", errors.New("field is not searchable: " + field)
	}
	return column, nil
}

// SearchInvoicesByAmount filters invoices on a derived amount field.
func SearchInvoicesByAmount(ctx context.Context, field string, operator string, value decimal.Decimal) ([]*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	column, err := DerivedAmountSearchColumn(field)
	if err != nil {
		return nil, err
	}
	if !searchOperators[operator] {
		return nil, errors.New("invalid operator: " + operator)
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	for _, assoc := range invoicePreloads {
		dbCtx = dbCtx.Preload(assoc)
	}
	var invoices []*Invoice
	err = dbCtx.Where(column+" "+operator+" ?", value).Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	ComputeDerivedAmounts(invoices)
	return invoices, nil
}
