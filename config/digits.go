package config

// DefaultUnitPriceDigits is the fallback precision for unit price columns
// when UNIT_PRICE_DIGITS is not set.
const DefaultUnitPriceDigits = 4

// UnitPriceDigits reads the deployment-wide unit price precision.
// Models never read this directly; the value is passed into the
// subvention factory by the host wiring.
func UnitPriceDigits() int32 {
	return int32(intFromEnv("UNIT_PRICE_DIGITS", DefaultUnitPriceDigits))
}
