package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testCurrency(places DecimalPlaces) *Currency {
	return &Currency{ID: 1, BusinessId: "biz", Symbol: "EUR", Name: "Euro", DecimalPlaces: places}
}

func testUnit(precision Precision) *ProductUnit {
	return &ProductUnit{ID: 1, BusinessId: "biz", Name: "Unit", Abbreviation: "u", Precision: precision}
}

func TestSubventionAmount_QuantityTimesUnitPriceRoundedByCurrency(t *testing.T) {
	cases := []struct {
		name     string
		places   DecimalPlaces
		quantity string
		price    string
		expected string
	}{
		{"two digit currency", DecimalPlacesTwo, "3", "19.99", "59.97"},
		{"zero digit currency rounds", DecimalPlacesZero, "3", "19.99", "60"},
		{"zero digit rounds half up", DecimalPlacesZero, "1", "2.5", "3"},
		{"three digit currency", DecimalPlacesThree, "2", "0.3333", "0.667"},
		{"fractional quantity", DecimalPlacesTwo, "1.5", "20.00", "30"},
	}
	for _, tc := range cases {
		s := Subvention{
			Currency:  testCurrency(tc.places),
			Quantity:  decimal.RequireFromString(tc.quantity),
			UnitPrice: decimal.RequireFromString(tc.price),
		}
		got := s.Amount()
		if !got.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("%s: amount expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestSubventionAmount_MissingFactorsYieldZero(t *testing.T) {
	quantity := decimal.RequireFromString("3")
	price := decimal.RequireFromString("19.99")

	cases := []struct {
		name string
		line Subvention
	}{
		{"no currency", Subvention{Quantity: quantity, UnitPrice: price}},
		{"no quantity", Subvention{Currency: testCurrency(DecimalPlacesTwo), UnitPrice: price}},
		{"no unit price", Subvention{Currency: testCurrency(DecimalPlacesTwo), Quantity: quantity}},
		{"empty line", Subvention{}},
	}
	for _, tc := range cases {
		if got := tc.line.Amount(); !got.IsZero() {
			t.Fatalf("%s: expected zero amount, got %s", tc.name, got)
		}
	}
}

func TestSubventionDigits_DefaultToTwo(t *testing.T) {
	var s Subvention
	if got := s.UnitDigits(); got != 2 {
		t.Fatalf("unit digits without unit expected 2, got %d", got)
	}
	if got := s.CurrencyDigits(); got != 2 {
		t.Fatalf("currency digits without currency expected 2, got %d", got)
	}

	s.Unit = testUnit(PrecisionFour)
	s.Currency = testCurrency(DecimalPlacesThree)
	if got := s.UnitDigits(); got != 4 {
		t.Fatalf("unit digits expected 4, got %d", got)
	}
	if got := s.CurrencyDigits(); got != 3 {
		t.Fatalf("currency digits expected 3, got %d", got)
	}
}

func TestSubventionFactory_Quantize(t *testing.T) {
	factory := NewSubventionFactory(4)

	s := Subvention{
		Unit:      testUnit(PrecisionZero),
		Currency:  testCurrency(DecimalPlacesTwo),
		Quantity:  decimal.RequireFromString("2.7"),
		UnitPrice: decimal.RequireFromString("1.23456"),
	}
	factory.quantize(&s)

	if !s.Quantity.Equal(decimal.RequireFromString("3")) {
		t.Fatalf("quantity expected 3, got %s", s.Quantity)
	}
	if !s.UnitPrice.Equal(decimal.RequireFromString("1.2346")) {
		t.Fatalf("unit price expected 1.2346, got %s", s.UnitPrice)
	}
}

func TestSubventionFactory_DefaultPrecision(t *testing.T) {
	factory := NewSubventionFactory(0)
	if got := factory.UnitPriceDigits(); got != 4 {
		t.Fatalf("default unit price digits expected 4, got %d", got)
	}
	factory = NewSubventionFactory(6)
	if got := factory.UnitPriceDigits(); got != 6 {
		t.Fatalf("unit price digits expected 6, got %d", got)
	}
}
