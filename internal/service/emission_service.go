package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"carbon-analytics-service/internal/analytics"
	"carbon-analytics-service/internal/model"
)

// RecordStore persists trip records and reads them back per vehicle. Zero
// bounds passed to FetchRecords leave that side of the interval open.
type RecordStore interface {
	Insert(ctx context.Context, record *model.EmissionRecord) error
	FetchRecords(ctx context.Context, vin *string, from, to time.Time) ([]model.EmissionRecord, error)
}

type EmissionCalculator interface {
	Calculate(report model.TripReport) model.EmissionRecord
}

// EmissionService records trip reports arriving over HTTP or the ingestion
// transports and answers per-vehicle record queries.
type EmissionService struct {
	store      RecordStore
	vehicles   VehicleDirectory
	calculator EmissionCalculator
}

func NewEmissionService(store RecordStore, vehicles VehicleDirectory, calculator EmissionCalculator) *EmissionService {
	return &EmissionService{store: store, vehicles: vehicles, calculator: calculator}
}

func (s *EmissionService) Record(ctx context.Context, report model.TripReport) (*model.EmissionRecord, error) {
	report.VIN = strings.TrimSpace(report.VIN)
	if err := validateTrip(report); err != nil {
		return nil, err
	}

	if err := requireVehicle(ctx, s.vehicles, report.VIN); err != nil {
		return nil, err
	}

	record := s.calculator.Calculate(report)
	if err := s.store.Insert(ctx, &record); err != nil {
		return nil, fmt.Errorf("insert emission record: %w", err)
	}
	return &record, nil
}

// VehicleEmissions lists one vehicle's records inside the window, newest first.
func (s *EmissionService) VehicleEmissions(ctx context.Context, vin string, window model.TimeWindow) ([]model.EmissionRecord, error) {
	records, err := s.vehicleRecords(ctx, strings.TrimSpace(vin), window)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredAt.After(records[j].OccurredAt)
	})
	return records, nil
}

// TotalReduction sums one vehicle's reduction inside the window. A vehicle
// without trips reports zero.
func (s *EmissionService) TotalReduction(ctx context.Context, vin string, window model.TimeWindow) (*model.VehicleReduction, error) {
	vin = strings.TrimSpace(vin)
	records, err := s.vehicleRecords(ctx, vin, window)
	if err != nil {
		return nil, err
	}

	totals := analytics.Sum(records)
	result := &model.VehicleReduction{
		VIN:             vin,
		Trips:           totals.Records,
		CarbonReduction: analytics.Quantity(totals.CarbonReducedKg),
	}
	if !window.From.IsZero() {
		from := window.From.UTC()
		result.From = &from
	}
	if !window.To.IsZero() {
		to := window.To.UTC()
		result.To = &to
	}
	return result, nil
}

func (s *EmissionService) vehicleRecords(ctx context.Context, vin string, window model.TimeWindow) ([]model.EmissionRecord, error) {
	if !window.From.IsZero() && !window.To.IsZero() && !window.To.After(window.From) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidRange)
	}
	if err := requireVehicle(ctx, s.vehicles, vin); err != nil {
		return nil, err
	}

	records, err := s.store.FetchRecords(ctx, &vin, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	if records == nil {
		records = []model.EmissionRecord{}
	}
	return records, nil
}

func validateTrip(report model.TripReport) error {
	switch {
	case report.VIN == "":
		return fmt.Errorf("%w: vin is required", ErrInvalidTrip)
	case !finite(report.DistanceKm) || report.DistanceKm < 0:
		return fmt.Errorf("%w: distance_km must be a non-negative number", ErrInvalidTrip)
	case !finite(report.EnergyKwh) || report.EnergyKwh < 0:
		return fmt.Errorf("%w: energy_kwh must be a non-negative number", ErrInvalidTrip)
	case report.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidTrip)
	case (report.Latitude == nil) != (report.Longitude == nil):
		return fmt.Errorf("%w: latitude and longitude must be sent together", ErrInvalidTrip)
	}
	if report.Latitude != nil {
		lat, lng := *report.Latitude, *report.Longitude
		if !finite(lat) || !finite(lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
			return fmt.Errorf("%w: coordinates out of range", ErrInvalidTrip)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
