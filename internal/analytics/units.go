// Package analytics holds the pure aggregation engine: rounding policy,
// temporal bucketing, spatial grouping and the derived carbon figures. Nothing
// here performs I/O; callers fetch records and pass them in.
package analytics

import (
	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

const (
	// WorkingScale is the number of fractional digits kept for intermediate ratios.
	WorkingScale int32 = 4

	QuantityScale   int32 = 2
	PercentageScale int32 = 1
	CountScale      int32 = 0
)

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// Factors are the conversion constants every aggregation uses. A Factors value
// is built once at startup and never mutated.
type Factors struct {
	GridEmission   decimal.Decimal // kg CO2e per kWh drawn from the grid
	ICEBaseline    decimal.Decimal // kg CO2e per km for a combustion vehicle
	FuelLiter      decimal.Decimal // kg CO2e per litre of fuel burned
	TreeAbsorption decimal.Decimal // kg CO2e one tree absorbs per year
	Credit         decimal.Decimal // credits per kg CO2e reduced
	PricePerKg     decimal.Decimal // currency units per kg CO2e reduced
}

func DefaultFactors() Factors {
	return Factors{
		GridEmission:   decimal.RequireFromString("0.8794"),
		ICEBaseline:    decimal.RequireFromString("0.2"),
		FuelLiter:      decimal.RequireFromString("2.3"),
		TreeAbsorption: decimal.RequireFromString("20"),
		Credit:         decimal.RequireFromString("0.05"),
		PricePerKg:     decimal.RequireFromString("0.50"),
	}
}

// NewFactors builds Factors from configured values. Non-positive values keep
// the default for that factor.
func NewFactors(grid, ice, fuel, tree, credit, price float64) Factors {
	f := DefaultFactors()
	override := func(dst *decimal.Decimal, v float64) {
		if v > 0 {
			*dst = decimal.NewFromFloat(v)
		}
	}
	override(&f.GridEmission, grid)
	override(&f.ICEBaseline, ice)
	override(&f.FuelLiter, fuel)
	override(&f.TreeAbsorption, tree)
	override(&f.Credit, credit)
	override(&f.PricePerKg, price)
	return f
}

// Div divides at working precision, rounding half away from zero. A zero
// denominator yields zero.
func Div(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, WorkingScale)
}

// Per100 is num/den scaled to "per 100 units of den" (kWh per 100 km).
func Per100(num, den decimal.Decimal) decimal.Decimal {
	return Div(num, den).Mul(hundred)
}

// Quantity rounds mass, distance, energy, money and credit values for output.
func Quantity(d decimal.Decimal) model.Fixed { return model.NewFixed(d, QuantityScale) }

func Percentage(d decimal.Decimal) model.Fixed { return model.NewFixed(d, PercentageScale) }

// Count rounds to whole units.
func Count(d decimal.Decimal) model.Fixed { return model.NewFixed(d, CountScale) }
