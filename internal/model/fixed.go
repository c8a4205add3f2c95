package model

import "github.com/shopspring/decimal"

// Fixed is a rounded decimal that keeps its scale on output: one at two
// places is written as 1.00.
type Fixed struct {
	decimal.Decimal
	Places int32
}

// NewFixed rounds d half away from zero to places fractional digits.
func NewFixed(d decimal.Decimal, places int32) Fixed {
	return Fixed{Decimal: d.Round(places), Places: places}
}

func (f Fixed) MarshalJSON() ([]byte, error) {
	s := f.StringFixed(f.Places)
	if decimal.MarshalJSONWithoutQuotes {
		return []byte(s), nil
	}
	return []byte(`"` + s + `"`), nil
}
