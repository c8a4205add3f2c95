package emission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/analytics"
	"carbon-analytics-service/internal/model"
)

// Calculator turns a trip measurement into an emission record by comparing
// the grid emissions of the energy drawn against a combustion vehicle driving
// the same distance.
type Calculator struct {
	factors analytics.Factors
	now     func() time.Time
}

func NewCalculator(factors analytics.Factors) *Calculator {
	return &Calculator{factors: factors, now: time.Now}
}

func (c *Calculator) Calculate(report model.TripReport) model.EmissionRecord {
	distance := decimal.NewFromFloat(report.DistanceKm)
	energy := decimal.NewFromFloat(report.EnergyKwh)

	emitted := energy.Mul(c.factors.GridEmission)
	baseline := distance.Mul(c.factors.ICEBaseline)

	return model.EmissionRecord{
		ID:              uuid.New(),
		VehicleID:       report.VIN,
		DistanceKm:      distance,
		EnergyKwh:       energy,
		CarbonEmittedKg: emitted,
		CarbonReducedKg: baseline.Sub(emitted),
		Latitude:        report.Latitude,
		Longitude:       report.Longitude,
		OccurredAt:      report.OccurredAt.UTC(),
		CreatedAt:       c.now().UTC(),
	}
}
