// Package units converts meter units to the base units used for storage.
package units

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

var thousand = decimal.NewFromInt(1000)

// Scaled units and what they are stored as.
var baseUnits = map[string]string{
	"kwh":   "Wh",
	"kw":    "W",
	"kvarh": "varh",
	"kvar":  "var",
	"m3":    "dm3",
	"gj":    "MJ",
}

// Normalize converts kilo units and m3 to their base unit, multiplying the
// value by 1000, so all readings of a quantity share one unit. Other units
// are returned as they are.
func Normalize(value decimal.Decimal, unit string) (decimal.Decimal, string) {
	base, ok := baseUnits[strings.ToLower(unit)]
	if !ok {
		return value, unit
	}
	return value.Mul(thousand), base
}

// Numeric returns the normalized number held by v.
// Strings and timestamps are not numeric.
func Numeric(v valuetype.Value) (decimal.Decimal, string, bool) {
	switch d := v.Data.(type) {
	case decimal.Decimal:
		n, unit := Normalize(d, v.Unit)
		return n, unit, true
	case int64:
		n, unit := Normalize(decimal.NewFromInt(d), v.Unit)
		return n, unit, true
	}
	return decimal.Decimal{}, "", false
}
