package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(vin string, at time.Time, reduced string) model.EmissionRecord {
	return model.EmissionRecord{
		ID:              uuid.New(),
		VehicleID:       vin,
		DistanceKm:      decimal.Zero,
		EnergyKwh:       decimal.Zero,
		CarbonEmittedKg: decimal.Zero,
		CarbonReducedKg: dec(reduced),
		OccurredAt:      at,
	}
}

func trip(vin string, at time.Time, distance, energy, reduced string) model.EmissionRecord {
	rec := record(vin, at, reduced)
	rec.DistanceKm = dec(distance)
	rec.EnergyKwh = dec(energy)
	return rec
}

func located(rec model.EmissionRecord, lat, lng float64) model.EmissionRecord {
	rec.Latitude = &lat
	rec.Longitude = &lng
	return rec
}

type decimalValue interface {
	Equal(decimal.Decimal) bool
	String() string
}

func assertDecimal(t *testing.T, name string, got decimalValue, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got.String())
	}
}
