package service

import (
	"context"
	"fmt"
	"time"

	"carbon-analytics-service/internal/analytics"
	"carbon-analytics-service/internal/model"
)

// RecordSource yields emission records for the half-open instant interval
// [from, to). A nil vin selects every vehicle.
type RecordSource interface {
	FetchRecords(ctx context.Context, vin *string, from, to time.Time) ([]model.EmissionRecord, error)
	FetchDailyTotals(ctx context.Context, vin string, from, to time.Time) ([]model.DailyTotal, error)
}

type VehicleDirectory interface {
	VehicleExists(ctx context.Context, vin string) (bool, error)
	ResolveModels(ctx context.Context, vins []string) (map[string]string, error)
	CountVehicles(ctx context.Context) (int64, error)
}

type Options struct {
	DefaultRangeDays   int
	MaxRangeDays       int
	HistoryDays        int
	MaxPredictionCount int
	HeatmapPrecision   int
	Factors            analytics.Factors
	Now                func() time.Time
}

type AnalyticsService struct {
	records  RecordSource
	vehicles VehicleDirectory
	opts     Options
}

func NewAnalyticsService(records RecordSource, vehicles VehicleDirectory, opts Options) *AnalyticsService {
	if opts.DefaultRangeDays <= 0 {
		opts.DefaultRangeDays = 7
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = 366
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 30
	}
	if opts.MaxPredictionCount <= 0 {
		opts.MaxPredictionCount = 365
	}
	if opts.Factors.TreeAbsorption.IsZero() {
		opts.Factors = analytics.DefaultFactors()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AnalyticsService{records: records, vehicles: vehicles, opts: opts}
}

func (s *AnalyticsService) CarbonSummary(ctx context.Context, rng model.DateRange) (*model.CarbonSummary, error) {
	rng, err := s.normalizeRange(rng)
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, nil, rng)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.CountVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vehicles: %w", err)
	}

	summary := analytics.Summarize(analytics.Sum(records).CarbonReducedKg, rng.Days(), vehicles, s.opts.Factors)
	summary.GeneratedFor = rng
	return &summary, nil
}

func (s *AnalyticsService) CarbonTrends(ctx context.Context, filter model.AnalyticsFilter) ([]model.TrendPoint, error) {
	rng, err := s.normalizeRange(filter.Range)
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, nil, rng)
	if err != nil {
		return nil, err
	}

	return analytics.Trends(analytics.Partition(records, rng, filter.Bucket()), s.opts.Factors), nil
}

func (s *AnalyticsService) CarbonByModel(ctx context.Context, rng model.DateRange) ([]model.ModelBreakdown, error) {
	rng, err := s.normalizeRange(rng)
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, nil, rng)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []model.ModelBreakdown{}, nil
	}

	models, err := s.vehicles.ResolveModels(ctx, distinctVINs(records))
	if err != nil {
		return nil, fmt.Errorf("resolve models: %w", err)
	}

	return analytics.ByModel(records, models), nil
}

func (s *AnalyticsService) DrivingSummary(ctx context.Context, vin string, rng model.DateRange) (*model.DrivingSummary, error) {
	if err := s.requireVehicle(ctx, vin); err != nil {
		return nil, err
	}
	rng, err := s.normalizeRange(rng)
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, &vin, rng)
	if err != nil {
		return nil, err
	}

	summary := analytics.Driving(analytics.Sum(records))
	return &summary, nil
}

// DrivingTimeSeries reads daily points from the pre-aggregated per-day totals
// and rebuilds weekly and monthly points from raw records.
func (s *AnalyticsService) DrivingTimeSeries(ctx context.Context, vin string, filter model.AnalyticsFilter) ([]model.TimeSeriesPoint, error) {
	if err := s.requireVehicle(ctx, vin); err != nil {
		return nil, err
	}
	rng, err := s.normalizeRange(filter.Range)
	if err != nil {
		return nil, err
	}

	groupBy := filter.Bucket()
	if groupBy == model.GroupByDay {
		from, to := rng.Bounds()
		days, err := s.records.FetchDailyTotals(ctx, vin, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch daily totals: %w", err)
		}
		return analytics.DailySeries(days), nil
	}

	records, err := s.fetch(ctx, &vin, rng)
	if err != nil {
		return nil, err
	}
	return analytics.TimeSeries(analytics.Partition(records, rng, groupBy)), nil
}

func (s *AnalyticsService) VehicleHeatmap(ctx context.Context, vin string, rng model.DateRange, value model.HeatmapValue) ([]model.HeatmapPoint, error) {
	if err := s.requireVehicle(ctx, vin); err != nil {
		return nil, err
	}
	rng, err := s.normalizeRange(rng)
	if err != nil {
		return nil, err
	}
	if value == model.HeatmapDuration {
		return []model.HeatmapPoint{}, nil
	}

	records, err := s.fetch(ctx, &vin, rng)
	if err != nil {
		return nil, err
	}

	cells := analytics.GroupByPosition(records, s.opts.HeatmapPrecision)
	return analytics.Heatmap(cells, value), nil
}

// Predictions extrapolates the trailing history window of one vehicle into
// count future periods.
func (s *AnalyticsService) Predictions(ctx context.Context, vin string, period model.PredictionPeriod, count int) ([]model.Prediction, error) {
	if err := s.requireVehicle(ctx, vin); err != nil {
		return nil, err
	}
	if count > s.opts.MaxPredictionCount {
		return nil, fmt.Errorf("%w: count %d exceeds %d", ErrInvalidRange, count, s.opts.MaxPredictionCount)
	}
	if count <= 0 {
		return []model.Prediction{}, nil
	}

	now := s.opts.Now().UTC()
	historyStart := now.AddDate(0, 0, -s.opts.HistoryDays)

	history, err := s.records.FetchRecords(ctx, &vin, historyStart, now)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	avg := analytics.AverageDailyReduction(history, historyStart, now)
	return analytics.Predict(avg, period, count, now, s.opts.Factors), nil
}

func (s *AnalyticsService) requireVehicle(ctx context.Context, vin string) error {
	return requireVehicle(ctx, s.vehicles, vin)
}

func requireVehicle(ctx context.Context, vehicles VehicleDirectory, vin string) error {
	if vin == "" {
		return fmt.Errorf("vehicle: %w", ErrNotFound)
	}
	exists, err := vehicles.VehicleExists(ctx, vin)
	if err != nil {
		return fmt.Errorf("lookup vehicle %s: %w", vin, err)
	}
	if !exists {
		return fmt.Errorf("vehicle %s: %w", vin, ErrNotFound)
	}
	return nil
}

func (s *AnalyticsService) fetch(ctx context.Context, vin *string, rng model.DateRange) ([]model.EmissionRecord, error) {
	from, to := rng.Bounds()
	records, err := s.records.FetchRecords(ctx, vin, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return records, nil
}

// normalizeRange fills missing ends with a trailing window ending today and
// rejects inverted or oversized ranges.
func (s *AnalyticsService) normalizeRange(rng model.DateRange) (model.DateRange, error) {
	if rng.To.IsZero() {
		rng.To = model.StartOfDay(s.opts.Now())
	}
	if rng.From.IsZero() {
		rng.From = model.StartOfDay(rng.To).AddDate(0, 0, -(s.opts.DefaultRangeDays - 1))
	}
	rng.From = model.StartOfDay(rng.From)
	rng.To = model.StartOfDay(rng.To)

	if rng.To.Before(rng.From) {
		return rng, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidRange,
			rng.To.Format(analytics.DateLayout), rng.From.Format(analytics.DateLayout))
	}
	if days := rng.Days(); days > s.opts.MaxRangeDays {
		return rng, fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidRange, days, s.opts.MaxRangeDays)
	}
	return rng, nil
}

func distinctVINs(records []model.EmissionRecord) []string {
	seen := make(map[string]struct{}, len(records))
	vins := make([]string, 0)
	for _, rec := range records {
		if _, ok := seen[rec.VehicleID]; ok {
			continue
		}
		seen[rec.VehicleID] = struct{}{}
		vins = append(vins, rec.VehicleID)
	}
	return vins
}
