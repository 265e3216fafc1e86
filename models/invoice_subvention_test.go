package models

import (
	"testing"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

// draftInvoice builds an in-memory draft invoice whose own total comes
// from its detail lines, the way the edit form does before saving.
func draftInvoice(currency *Currency, details ...InvoiceDetail) *Invoice {
	invoice := &Invoice{
		BusinessId:     "biz",
		CustomerId:     1,
		InvoiceNumber:  "INV-001",
		CurrencyId:     currency.ID,
		Currency:       currency,
		CurrentStatus:  InvoiceStatusDraft,
		IsTaxInclusive: utils.NewFalse(),
		Details:        details,
	}
	invoice.CalculateTotals()
	return invoice
}

func detailLine(qty, rate string) InvoiceDetail {
	return InvoiceDetail{
		Name:           "line",
		DetailQty:      decimal.RequireFromString(qty),
		DetailUnitRate: decimal.RequireFromString(rate),
	}
}

func subventionLine(currency *Currency, qty, price string) Subvention {
	return Subvention{
		Currency:  currency,
		Quantity:  decimal.RequireFromString(qty),
		UnitPrice: decimal.RequireFromString(price),
	}
}

func mustEqual(t *testing.T, name string, got decimal.Decimal, expected string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(expected)) {
		t.Fatalf("%s expected %s, got %s", name, expected, got)
	}
}

func TestZeroSubventionIdentity(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency, detailLine("1", "120.00"))

	amounts := invoice.OnChangeSubventions()

	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "0")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "120.00")
}

func TestSubventionAggregationScenarios(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency, detailLine("1", "120.00"))
	mustEqual(t, "total_amount", invoice.InvoiceTotalAmount, "120.00")

	// one line: 1 x 20.00
	invoice.Subventions = []Subvention{subventionLine(currency, "1", "20.00")}
	amounts := invoice.OnChangeSubventions()
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "20.00")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "100.00")

	// second line: 2 x 5.00
	invoice.Subventions = append(invoice.Subventions, subventionLine(currency, "2", "5.00"))
	amounts = invoice.OnChangeSubventions()
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "30.00")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "90.00")

	// all lines removed
	invoice.Subventions = nil
	amounts = invoice.OnChangeSubventions()
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "0")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "120.00")
}

// A line missing a factor contributes zero; aggregation never fails on it.
func TestIncompleteLineContributesZero(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency, detailLine("1", "120.00"))

	incomplete := Subvention{Currency: currency, Quantity: decimal.RequireFromString("3")}
	invoice.Subventions = []Subvention{
		incomplete,
		subventionLine(currency, "1", "20.00"),
	}

	amounts := invoice.OnChangeSubventions()
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "20.00")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "100.00")
}

// Before the invoice's own total is computed, both derived fields stay
// at zero even when subvention lines are present.
func TestUnknownTotalKeepsDerivedFieldsZero(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := &Invoice{Currency: currency, CurrentStatus: InvoiceStatusDraft}
	invoice.Subventions = []Subvention{subventionLine(currency, "1", "20.00")}

	if invoice.TotalsComputed() {
		t.Fatal("fresh in-memory invoice should not have computed totals")
	}
	amounts := invoice.OnChangeSubventions()
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "0")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "0")
}

// A known-but-zero total is computed conservatively, not skipped.
func TestZeroTotalComputesConservatively(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency)
	mustEqual(t, "total_amount", invoice.InvoiceTotalAmount, "0")

	invoice.Subventions = []Subvention{subventionLine(currency, "1", "10.00")}
	amounts := invoice.OnChangeSubventions()
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "10.00")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "-10.00")
}

// An ordinary line edit must recompute the invoice total before the
// subvention aggregation re-applies, never after.
func TestLineEditRecomputesTotalBeforeAggregation(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency, detailLine("1", "120.00"))
	invoice.Subventions = []Subvention{subventionLine(currency, "1", "20.00")}
	invoice.OnChangeSubventions()
	mustEqual(t, "customer_amount", invoice.CustomerAmount, "100.00")

	// edit the ordinary line
	invoice.Details[0].DetailUnitRate = decimal.RequireFromString("200.00")
	amounts := invoice.OnChangeLines()

	mustEqual(t, "total_amount", invoice.InvoiceTotalAmount, "200.00")
	mustEqual(t, "subvention_amount", amounts.SubventionAmount, "20.00")
	mustEqual(t, "customer_amount", amounts.CustomerAmount, "180.00")
}

// Subventions reduce what the customer owes without touching the
// invoice's tax computation.
func TestSubventionDoesNotAffectTax(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	taxed := detailLine("1", "100.00")
	taxed.DetailTax = &Tax{Rate: decimal.RequireFromString("10")}
	invoice := draftInvoice(currency, taxed)

	mustEqual(t, "tax_amount", invoice.InvoiceTotalTaxAmount, "10.00")
	mustEqual(t, "total_amount", invoice.InvoiceTotalAmount, "110.00")

	invoice.Subventions = []Subvention{subventionLine(currency, "1", "20.00")}
	invoice.OnChangeLines()

	mustEqual(t, "tax_amount", invoice.InvoiceTotalTaxAmount, "10.00")
	mustEqual(t, "total_amount", invoice.InvoiceTotalAmount, "110.00")
	mustEqual(t, "subvention_amount", invoice.SubventionAmount, "20.00")
	mustEqual(t, "customer_amount", invoice.CustomerAmount, "90.00")
}

func TestRecomputeIsIdempotent(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency, detailLine("3", "33.335"))
	invoice.Subventions = []Subvention{
		subventionLine(currency, "3", "1.115"),
		subventionLine(currency, "2", "5.00"),
	}

	first := invoice.OnChangeSubventions()
	second := invoice.OnChangeSubventions()
	if !first.SubventionAmount.Equal(second.SubventionAmount) || !first.CustomerAmount.Equal(second.CustomerAmount) {
		t.Fatalf("recompute not idempotent: first %+v, second %+v", first, second)
	}

	third := invoice.OnChangeLines()
	if !second.SubventionAmount.Equal(third.SubventionAmount) || !second.CustomerAmount.Equal(third.CustomerAmount) {
		t.Fatalf("line recompute drifted: second %+v, third %+v", second, third)
	}
}

// customer_amount + subvention_amount always reassembles the total, and
// the subvention total is the rounded sum of the rounded line amounts.
func TestConservationLaw(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)
	invoice := draftInvoice(currency, detailLine("7", "19.115"))
	invoice.Subventions = []Subvention{
		subventionLine(currency, "1.5", "3.333"),
		subventionLine(currency, "2", "0.005"),
		subventionLine(currency, "4", "7.77"),
	}

	amounts := invoice.OnChangeSubventions()

	sum := decimal.Zero
	for i := range invoice.Subventions {
		sum = sum.Add(invoice.Subventions[i].Amount())
	}
	if !amounts.SubventionAmount.Equal(currency.Round(sum)) {
		t.Fatalf("subvention_amount %s != rounded line sum %s", amounts.SubventionAmount, currency.Round(sum))
	}
	reassembled := amounts.CustomerAmount.Add(amounts.SubventionAmount)
	if !reassembled.Equal(invoice.InvoiceTotalAmount) {
		t.Fatalf("conservation violated: %s + %s != %s", amounts.CustomerAmount, amounts.SubventionAmount, invoice.InvoiceTotalAmount)
	}
}

func TestComputeDerivedAmountsBatch(t *testing.T) {
	currency := testCurrency(DecimalPlacesTwo)

	withLines := draftInvoice(currency, detailLine("1", "120.00"))
	withLines.Subventions = []Subvention{subventionLine(currency, "1", "20.00")}
	empty := draftInvoice(currency, detailLine("1", "50.00"))

	ComputeDerivedAmounts([]*Invoice{withLines, empty})

	mustEqual(t, "subvention_amount", withLines.SubventionAmount, "20.00")
	mustEqual(t, "customer_amount", withLines.CustomerAmount, "100.00")
	mustEqual(t, "subvention_amount", empty.SubventionAmount, "0")
	mustEqual(t, "customer_amount", empty.CustomerAmount, "50.00")
}

func TestDerivedAmountSearchDelegatesToTotal(t *testing.T) {
	for _, field := range []string{"subvention_amount", "customer_amount", "total_amount"} {
		column, err := DerivedAmountSearchColumn(field)
		if err != nil {
			t.Fatalf("DerivedAmountSearchColumn(%q) error: %v", field, err)
		}
		if column != "invoice_total_amount" {
			t.Fatalf("DerivedAmountSearchColumn(%q) expected invoice_total_amount, got %s", field, column)
		}
	}
	if _, err := DerivedAmountSearchColumn("remaining_balance"); err == nil {
		t.Fatal("expected error for unsearchable field")
	}
}
