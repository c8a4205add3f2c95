package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

const UnknownModel = "Unknown"

type Totals struct {
	DistanceKm      decimal.Decimal
	EnergyKwh       decimal.Decimal
	CarbonReducedKg decimal.Decimal
	Records         int
}

func Sum(records []model.EmissionRecord) Totals {
	t := Totals{DistanceKm: decimal.Zero, EnergyKwh: decimal.Zero, CarbonReducedKg: decimal.Zero}
	for _, rec := range records {
		t.DistanceKm = t.DistanceKm.Add(rec.DistanceKm)
		t.EnergyKwh = t.EnergyKwh.Add(rec.EnergyKwh)
		t.CarbonReducedKg = t.CarbonReducedKg.Add(rec.CarbonReducedKg)
		t.Records++
	}
	return t
}

// Summarize derives every summary figure from the one total reduction:
//
//	comparedToFuel  = total / fuel factor
//	equivalentTrees = (total / tree factor) * (days / 365)
//	economicValue   = total * price
func Summarize(total decimal.Decimal, days int, vehicles int64, f Factors) model.CarbonSummary {
	daysFactor := Div(decimal.NewFromInt(int64(days)), daysPerYear)
	trees := Div(total, f.TreeAbsorption).Mul(daysFactor)

	return model.CarbonSummary{
		TotalReduction:  Quantity(total),
		ComparedToFuel:  Quantity(Div(total, f.FuelLiter)),
		EquivalentTrees: Count(trees),
		EconomicValue:   Quantity(total.Mul(f.PricePerKg)),
		VehicleCount:    vehicles,
	}
}

// Trends rounds each bucket on its own, so the bucket values may not add up
// exactly to the rounded summary total.
func Trends(buckets []Bucket, f Factors) []model.TrendPoint {
	points := make([]model.TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		reduction := Sum(b.Records).CarbonReducedKg
		points = append(points, model.TrendPoint{
			Date:      b.Label,
			Reduction: Quantity(reduction),
			Credits:   Quantity(reduction.Mul(f.Credit)),
		})
	}
	return points
}

// ByModel groups records by the model label of their vehicle. Percentages are
// shares of the grand total and are all zero when that total is zero. The
// result is ordered by reduction, largest first; equal reductions keep the
// order in which the models first appear chronologically.
func ByModel(records []model.EmissionRecord, models map[string]string) []model.ModelBreakdown {
	ordered := make([]model.EmissionRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	type group struct {
		model     string
		reduction decimal.Decimal
		vehicles  map[string]struct{}
	}
	index := make(map[string]int)
	groups := make([]*group, 0)
	grandTotal := decimal.Zero

	for _, rec := range ordered {
		label := strings.TrimSpace(models[rec.VehicleID])
		if label == "" {
			label = UnknownModel
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, &group{model: label, reduction: decimal.Zero, vehicles: make(map[string]struct{})})
		}
		groups[i].reduction = groups[i].reduction.Add(rec.CarbonReducedKg)
		groups[i].vehicles[rec.VehicleID] = struct{}{}
		grandTotal = grandTotal.Add(rec.CarbonReducedKg)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].reduction.GreaterThan(groups[j].reduction)
	})

	result := make([]model.ModelBreakdown, 0, len(groups))
	for _, g := range groups {
		percentage := decimal.Zero
		if !grandTotal.IsZero() {
			percentage = Div(g.reduction, grandTotal).Mul(hundred)
		}
		result = append(result, model.ModelBreakdown{
			Model:        g.model,
			Reduction:    Quantity(g.reduction),
			Percentage:   Percentage(percentage),
			VehicleCount: int64(len(g.vehicles)),
		})
	}
	return result
}

// Driving turns summed trip quantities into a driving summary. Efficiency is
// kWh per 100 km and is zero when no distance was recorded.
func Driving(t Totals) model.DrivingSummary {
	return model.DrivingSummary{
		TotalMileage:         Quantity(t.DistanceKm),
		TotalEnergy:          Quantity(t.EnergyKwh),
		TotalCarbonReduction: Quantity(t.CarbonReducedKg),
		AverageEfficiency:    Quantity(Per100(t.EnergyKwh, t.DistanceKm)),
	}
}

func TimeSeries(buckets []Bucket) []model.TimeSeriesPoint {
	points := make([]model.TimeSeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, seriesPoint(b.Label, Sum(b.Records)))
	}
	return points
}

// DailySeries converts pre-aggregated vehicle-days into series points,
// ordered by day regardless of input order.
func DailySeries(days []model.DailyTotal) []model.TimeSeriesPoint {
	ordered := make([]model.DailyTotal, len(days))
	copy(ordered, days)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Day.Before(ordered[j].Day)
	})

	points := make([]model.TimeSeriesPoint, 0, len(ordered))
	for _, d := range ordered {
		points = append(points, seriesPoint(model.StartOfDay(d.Day).Format(DateLayout), Totals{
			DistanceKm:      d.DistanceKm,
			EnergyKwh:       d.EnergyKwh,
			CarbonReducedKg: d.CarbonReducedKg,
		}))
	}
	return points
}

func seriesPoint(label string, t Totals) model.TimeSeriesPoint {
	return model.TimeSeriesPoint{
		Date:            label,
		Mileage:         Quantity(t.DistanceKm),
		Energy:          Quantity(t.EnergyKwh),
		CarbonReduction: Quantity(t.CarbonReducedKg),
		EnergyPer100km:  Quantity(Per100(t.EnergyKwh, t.DistanceKm)),
	}
}

// Heatmap weighs each cell by record count or summed reduction. Records carry
// no trip duration, so the duration weighting yields no points.
func Heatmap(cells []Cell, value model.HeatmapValue) []model.HeatmapPoint {
	points := make([]model.HeatmapPoint, 0, len(cells))
	if value == model.HeatmapDuration {
		return points
	}
	for _, c := range cells {
		weight := Count(decimal.NewFromInt(int64(len(c.Records))))
		if value == model.HeatmapCarbonReduction {
			weight = Quantity(Sum(c.Records).CarbonReducedKg)
		}
		points = append(points, model.HeatmapPoint{Lat: c.Point.Lat, Lng: c.Point.Lng, Value: weight})
	}
	return points
}
