package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

type fakeRecords struct {
	fetchRecordsFn     func(ctx context.Context, vin *string, from, to time.Time) ([]model.EmissionRecord, error)
	fetchDailyTotalsFn func(ctx context.Context, vin string, from, to time.Time) ([]model.DailyTotal, error)
	insertFn           func(ctx context.Context, record *model.EmissionRecord) error
	calls              int
}

func (f *fakeRecords) FetchRecords(ctx context.Context, vin *string, from, to time.Time) ([]model.EmissionRecord, error) {
	f.calls++
	if f.fetchRecordsFn == nil {
		return nil, nil
	}
	return f.fetchRecordsFn(ctx, vin, from, to)
}

func (f *fakeRecords) FetchDailyTotals(ctx context.Context, vin string, from, to time.Time) ([]model.DailyTotal, error) {
	f.calls++
	if f.fetchDailyTotalsFn == nil {
		return nil, nil
	}
	return f.fetchDailyTotalsFn(ctx, vin, from, to)
}

func (f *fakeRecords) Insert(ctx context.Context, record *model.EmissionRecord) error {
	f.calls++
	if f.insertFn == nil {
		return nil
	}
	return f.insertFn(ctx, record)
}

type fakeVehicles struct {
	existsFn func(ctx context.Context, vin string) (bool, error)
	modelsFn func(ctx context.Context, vins []string) (map[string]string, error)
	count    int64
}

func (f *fakeVehicles) VehicleExists(ctx context.Context, vin string) (bool, error) {
	if f.existsFn == nil {
		return true, nil
	}
	return f.existsFn(ctx, vin)
}

func (f *fakeVehicles) ResolveModels(ctx context.Context, vins []string) (map[string]string, error) {
	if f.modelsFn == nil {
		return map[string]string{}, nil
	}
	return f.modelsFn(ctx, vins)
}

func (f *fakeVehicles) CountVehicles(ctx context.Context) (int64, error) {
	return f.count, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func reductionRecord(vin string, at time.Time, reduced string) model.EmissionRecord {
	return model.EmissionRecord{
		VehicleID:       vin,
		DistanceKm:      decimal.Zero,
		EnergyKwh:       decimal.Zero,
		CarbonReducedKg: decimal.RequireFromString(reduced),
		OccurredAt:      at,
	}
}

func onlyKnown(vins ...string) func(context.Context, string) (bool, error) {
	return func(_ context.Context, vin string) (bool, error) {
		for _, v := range vins {
			if v == vin {
				return true, nil
			}
		}
		return false, nil
	}
}
