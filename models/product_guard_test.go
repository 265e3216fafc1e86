package models

import "testing"

func TestInvoiceLineProductDomain(t *testing.T) {
	allowed := []ProductType{
		ProductTypeSingle,
		ProductTypeGroup,
		ProductTypeComposite,
		ProductTypeVariant,
		ProductTypeInput,
	}
	for _, productType := range allowed {
		if err := validateInvoiceLineProduct(&Product{Type: productType}); err != nil {
			t.Fatalf("type %s should be allowed on an invoice line, got %v", productType, err)
		}
	}
	if err := validateInvoiceLineProduct(&Product{Type: ProductTypeSubvention}); err == nil {
		t.Fatal("subvention product must be rejected on an invoice line")
	}
}

func TestSubventionProductDomain(t *testing.T) {
	if err := validateSubventionProduct(&Product{Type: ProductTypeSubvention}); err != nil {
		t.Fatalf("subvention product should be accepted, got %v", err)
	}
	for _, productType := range []ProductType{ProductTypeSingle, ProductTypeInput} {
		if err := validateSubventionProduct(&Product{Type: productType}); err == nil {
			t.Fatalf("type %s must be rejected on a subvention line", productType)
		}
	}
}

func TestProductDisplayNameLocalization(t *testing.T) {
	product := &Product{
		Name: "Subsidy",
		Translations: []ProductTranslation{
			{LanguageCode: "fr", Name: "Subvention"},
			{LanguageCode: "es", Name: "Subvencion"},
		},
	}

	cases := []struct {
		name     string
		code     string
		expected string
	}{
		{"exact match", "fr", "Subvention"},
		{"regional variant matches base", "fr-CA", "Subvention"},
		{"second translation", "es", "Subvencion"},
		{"untranslated language falls back", "de", "Subsidy"},
		{"blank code falls back", "", "Subsidy"},
		{"invalid code falls back", "not a tag!", "Subsidy"},
	}
	for _, tc := range cases {
		if got := product.DisplayName(tc.code); got != tc.expected {
			t.Fatalf("%s: DisplayName(%q) expected %q, got %q", tc.name, tc.code, tc.expected, got)
		}
	}
}

func TestProductDisplayNameSkipsBadTranslationTags(t *testing.T) {
	product := &Product{
		Name: "Subsidy",
		Translations: []ProductTranslation{
			{LanguageCode: "??", Name: "Broken"},
			{LanguageCode: "fr", Name: "Subvention"},
		},
	}
	if got := product.DisplayName("fr"); got != "Subvention" {
		t.Fatalf("expected unparseable translation tags to be skipped, got %q", got)
	}
	onlyBad := &Product{
		Name:         "Subsidy",
		Translations: []ProductTranslation{{LanguageCode: "??", Name: "Broken"}},
	}
	if got := onlyBad.DisplayName("fr"); got != "Subsidy" {
		t.Fatalf("expected base name when no translation parses, got %q", got)
	}
}
