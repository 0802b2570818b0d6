package leads

import (
	"strings"

	"github.com/samber/lo"
)

// fuelLabels maps fuel codes posted by the forms to display labels.
var fuelLabels = map[string]string{
	"ulsd":           "Ultra-Low Sulphur Diesel",
	"diesel":         "Diesel",
	"gasoline-87":    "Gasoline 87",
	"gasoline-90":    "Gasoline 90",
	"kerosene":       "Kerosene",
	"lpg":            "LPG",
	"heavy-fuel-oil": "Heavy Fuel Oil",
	"marine-gas-oil": "Marine Gas Oil",
	"jet-a1":         "Jet A-1",
	"lubricants":     "Lubricants",
}

// FuelLabel returns the display label for code, or code itself when unknown.
func FuelLabel(code string) string {
	if label, ok := fuelLabels[strings.ToLower(code)]; ok {
		return label
	}
	return code
}

// NormalizeFuelTypes trims, de-duplicates and labels fuel codes, keeping the
// first occurrence of each. Labels pass through unchanged, so the result can
// be normalized again without effect.
func NormalizeFuelTypes(codes []string) []string {
	trimmed := lo.Compact(lo.Map(codes, func(c string, _ int) string {
		return strings.TrimSpace(c)
	}))
	labels := lo.Map(lo.Uniq(trimmed), func(c string, _ int) string {
		return FuelLabel(c)
	})
	return lo.Uniq(labels)
}
