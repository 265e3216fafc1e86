package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

type DecimalPlaces string

const (
	DecimalPlacesZero  DecimalPlaces = "0"
	DecimalPlacesTwo   DecimalPlaces = "2"
	DecimalPlacesThree DecimalPlaces = "3"
)

// Digits returns the numeric digit count for rounding.
func (p DecimalPlaces) Digits() int32 {
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 2
	}
	return int32(n)
}

func (p DecimalPlaces) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *DecimalPlaces) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("decimalPlaces must be string")
	}
	switch str {
	case "0":
		*p = DecimalPlacesZero
	case "2":
		*p = DecimalPlacesTwo
	case "3":
		*p = DecimalPlacesThree
	default:
		return errors.New("invalid decimalPlaces")
	}
	return nil
}

type Precision string

const (
	PrecisionZero  Precision = "0"
	PrecisionOne   Precision = "1"
	PrecisionTwo   Precision = "2"
	PrecisionThree Precision = "3"
	PrecisionFour  Precision = "4"
)

func (p Precision) Digits() int32 {
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 2
	}
	return int32(n)
}

func (p Precision) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *Precision) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("precision must be string")
	}

	switch str {
	case "0":
		*p = PrecisionZero
	case "1":
		*p = PrecisionOne
	case "2":
		*p = PrecisionTwo
	case "3":
		*p = PrecisionThree
	case "4":
		*p = PrecisionFour
	default:
		return errors.New("invalid precision")
	}
	return nil
}

type DiscountType string

const (
	DiscountTypePercent DiscountType = "P"
	DiscountTypeAmount  DiscountType = "A"
)

func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *DiscountType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("discount type must be string")
	}
	switch str {
	case "P":
		*t = DiscountTypePercent
	case "A":
		*t = DiscountTypeAmount
	default:
		return errors.New("invalid discount type")
	}
	return nil
}

// ProductType is the catalog classification. The set is declared once;
// Subvention ('U') products may only appear on subvention lines, never on
// ordinary invoice lines.
type ProductType string

const (
	ProductTypeSingle     ProductType = "S"
	ProductTypeGroup      ProductType = "G"
	ProductTypeComposite  ProductType = "C"
	ProductTypeVariant    ProductType = "V"
	ProductTypeInput      ProductType = "I"
	ProductTypeSubvention ProductType = "U"
)

func (t ProductType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *ProductType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("product type must be string")
	}
	switch str {
	case "S":
		*t = ProductTypeSingle
	case "G":
		*t = ProductTypeGroup
	case "C":
		*t = ProductTypeComposite
	case "V":
		*t = ProductTypeVariant
	case "I":
		*t = ProductTypeInput
	case "U":
		*t = ProductTypeSubvention
	default:
		return errors.New("invalid product type")
	}
	return nil
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "Draft"
	InvoiceStatusConfirmed InvoiceStatus = "Confirmed"
	InvoiceStatusVoid      InvoiceStatus = "Void"
)

func (s InvoiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *InvoiceStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("invoice status must be string")
	}
	switch str {
	case "Draft":
		*s = InvoiceStatusDraft
	case "Confirmed":
		*s = InvoiceStatusConfirmed
	case "Void":
		*s = InvoiceStatusVoid
	default:
		return errors.New("invalid invoice status")
	}
	return nil
}
