package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

func TestSummaryAndTrendsTwoDayScenario(t *testing.T) {
	rng := model.DateRange{From: day(2024, 5, 1), To: day(2024, 5, 2)}
	records := []model.EmissionRecord{
		record("V1", day(2024, 5, 1).Add(8*time.Hour), "10.0"),
		record("V1", day(2024, 5, 2).Add(8*time.Hour), "15.0"),
	}
	f := DefaultFactors()

	summary := Summarize(Sum(records).CarbonReducedKg, rng.Days(), 1, f)
	assertDecimal(t, "total", summary.TotalReduction, "25.00")
	assertDecimal(t, "fuel", summary.ComparedToFuel, "10.87")
	assertDecimal(t, "trees", summary.EquivalentTrees, "0")
	assertDecimal(t, "value", summary.EconomicValue, "12.50")
	if summary.VehicleCount != 1 {
		t.Errorf("expected 1 vehicle, got %d", summary.VehicleCount)
	}

	trends := Trends(Partition(records, rng, model.GroupByDay), f)
	if len(trends) != 2 {
		t.Fatalf("expected 2 trend points, got %d", len(trends))
	}
	assertDecimal(t, "day 1", trends[0].Reduction, "10.00")
	assertDecimal(t, "day 2", trends[1].Reduction, "15.00")
	assertDecimal(t, "credits 1", trends[0].Credits, "0.50")
	assertDecimal(t, "credits 2", trends[1].Credits, "0.75")
}

func TestSummaryEquivalentTreesScalesWithDays(t *testing.T) {
	summary := Summarize(dec("7300"), 365, 0, DefaultFactors())
	assertDecimal(t, "trees", summary.EquivalentTrees, "365")
	assertDecimal(t, "value", summary.EconomicValue, "3650.00")
}

func TestTrendsSumMatchesSummaryTotal(t *testing.T) {
	rng := model.DateRange{From: day(2024, 1, 1), To: day(2024, 1, 31)}
	var records []model.EmissionRecord
	for i := 0; i < 60; i++ {
		at := day(2024, 1, 1).Add(time.Duration(i*11) * time.Hour)
		records = append(records, record("V1", at, decimal.NewFromFloat(float64(i%7)*1.337-2.1).String()))
	}

	buckets := Partition(records, rng, model.GroupByDay)
	trends := Trends(buckets, DefaultFactors())
	summary := Summarize(Sum(records).CarbonReducedKg, rng.Days(), 1, DefaultFactors())

	sum := decimal.Zero
	for _, p := range trends {
		sum = sum.Add(p.Reduction.Decimal)
	}
	tolerance := dec("0.01").Mul(decimal.NewFromInt(int64(len(trends))))
	if sum.Sub(summary.TotalReduction.Decimal).Abs().GreaterThan(tolerance) {
		t.Fatalf("expected bucket sum %s within %s of total %s", sum, tolerance, summary.TotalReduction)
	}
}

func TestByModelPercentagesAndOrdering(t *testing.T) {
	records := []model.EmissionRecord{
		record("V3", day(2024, 1, 1), "10"),
		record("V1", day(2024, 1, 2), "10"),
		record("V2", day(2024, 1, 3), "20"),
		record("V1", day(2024, 1, 4), "0"),
	}
	models := map[string]string{"V1": "Model A", "V2": "Model A", "V3": "Model B"}

	result := ByModel(records, models)

	if len(result) != 2 {
		t.Fatalf("expected 2 models, got %d", len(result))
	}
	if result[0].Model != "Model A" || result[1].Model != "Model B" {
		t.Fatalf("expected Model A then Model B, got %s then %s", result[0].Model, result[1].Model)
	}
	assertDecimal(t, "A reduction", result[0].Reduction, "30.00")
	assertDecimal(t, "A percentage", result[0].Percentage, "75.0")
	assertDecimal(t, "B percentage", result[1].Percentage, "25.0")
	if result[0].VehicleCount != 2 {
		t.Errorf("expected 2 distinct vehicles for Model A, got %d", result[0].VehicleCount)
	}
	if result[1].VehicleCount != 1 {
		t.Errorf("expected 1 vehicle for Model B, got %d", result[1].VehicleCount)
	}
}

func TestByModelPercentagesSumToHundred(t *testing.T) {
	records := []model.EmissionRecord{
		record("V1", day(2024, 1, 1), "1"),
		record("V2", day(2024, 1, 1), "1"),
		record("V3", day(2024, 1, 1), "1"),
	}
	models := map[string]string{"V1": "A", "V2": "B", "V3": "C"}

	sum := decimal.Zero
	for _, m := range ByModel(records, models) {
		sum = sum.Add(m.Percentage.Decimal)
	}
	if sum.Sub(dec("100")).Abs().GreaterThan(dec("0.3")) {
		t.Fatalf("expected percentages to sum to about 100, got %s", sum)
	}
}

func TestByModelZeroGrandTotal(t *testing.T) {
	records := []model.EmissionRecord{
		record("V1", day(2024, 1, 1), "5"),
		record("V2", day(2024, 1, 2), "-5"),
	}
	models := map[string]string{"V1": "A", "V2": "B"}

	for _, m := range ByModel(records, models) {
		if !m.Percentage.IsZero() {
			t.Errorf("%s: expected zero percentage, got %s", m.Model, m.Percentage)
		}
	}
}

func TestByModelTiesKeepFirstAppearance(t *testing.T) {
	records := []model.EmissionRecord{
		record("V2", day(2024, 1, 2), "5"),
		record("V1", day(2024, 1, 1), "5"),
	}
	models := map[string]string{"V1": "Later Name", "V2": "Another"}

	result := ByModel(records, models)

	if result[0].Model != "Later Name" {
		t.Fatalf("expected the chronologically first model first, got %s", result[0].Model)
	}
}

func TestByModelUnresolvedVehicle(t *testing.T) {
	result := ByModel([]model.EmissionRecord{record("GHOST", day(2024, 1, 1), "1")}, map[string]string{})
	if len(result) != 1 || result[0].Model != UnknownModel {
		t.Fatalf("expected a single %q group, got %#v", UnknownModel, result)
	}
}

func TestDrivingZeroMileage(t *testing.T) {
	summary := Driving(Sum([]model.EmissionRecord{trip("V1", day(2024, 1, 1), "0", "3.2", "-2.8")}))
	assertDecimal(t, "efficiency", summary.AverageEfficiency, "0")
	assertDecimal(t, "energy", summary.TotalEnergy, "3.20")
}

func TestDrivingNoRecords(t *testing.T) {
	summary := Driving(Sum(nil))
	assertDecimal(t, "mileage", summary.TotalMileage, "0")
	assertDecimal(t, "energy", summary.TotalEnergy, "0")
	assertDecimal(t, "reduction", summary.TotalCarbonReduction, "0")
	assertDecimal(t, "efficiency", summary.AverageEfficiency, "0.00")
}

func TestDrivingEfficiency(t *testing.T) {
	records := []model.EmissionRecord{
		trip("V1", day(2024, 1, 1), "60", "9", "4.0854"),
		trip("V1", day(2024, 1, 2), "40", "6.5", "2.2839"),
	}
	summary := Driving(Sum(records))
	assertDecimal(t, "mileage", summary.TotalMileage, "100.00")
	assertDecimal(t, "efficiency", summary.AverageEfficiency, "15.50")
	assertDecimal(t, "reduction", summary.TotalCarbonReduction, "6.37")
}

func TestTimeSeriesWeekly(t *testing.T) {
	rng := model.DateRange{From: day(2024, 1, 1), To: day(2024, 1, 14)}
	records := []model.EmissionRecord{
		trip("V1", day(2024, 1, 9), "10", "2", "1"),
		trip("V1", day(2024, 1, 2), "50", "7.5", "3"),
		trip("V1", day(2024, 1, 3), "50", "7.5", "3"),
	}

	points := TimeSeries(Partition(records, rng, model.GroupByWeek))

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Date != "2024-01-01" || points[1].Date != "2024-01-08" {
		t.Fatalf("unexpected labels %s, %s", points[0].Date, points[1].Date)
	}
	assertDecimal(t, "week 1 mileage", points[0].Mileage, "100")
	assertDecimal(t, "week 1 efficiency", points[0].EnergyPer100km, "15")
	assertDecimal(t, "week 2 efficiency", points[1].EnergyPer100km, "20")
}

func TestDailySeriesSortsDays(t *testing.T) {
	days := []model.DailyTotal{
		{Day: day(2024, 1, 3), DistanceKm: dec("0"), EnergyKwh: dec("1"), CarbonReducedKg: dec("-0.88")},
		{Day: day(2024, 1, 1), DistanceKm: dec("80"), EnergyKwh: dec("12"), CarbonReducedKg: dec("5.4472")},
	}

	points := DailySeries(days)

	if points[0].Date != "2024-01-01" || points[1].Date != "2024-01-03" {
		t.Fatalf("expected ascending days, got %s, %s", points[0].Date, points[1].Date)
	}
	assertDecimal(t, "efficiency", points[0].EnergyPer100km, "15")
	assertDecimal(t, "reduction", points[0].CarbonReduction, "5.45")
	assertDecimal(t, "zero distance", points[1].EnergyPer100km, "0")
}

func TestByModelIsDeterministic(t *testing.T) {
	records := []model.EmissionRecord{
		record("V1", day(2024, 1, 1), "5"),
		record("V2", day(2024, 1, 2), "5"),
		record("V3", day(2024, 1, 3), "5"),
		record("V4", day(2024, 1, 4), "7.25"),
		record("V5", day(2024, 1, 5), "5"),
	}
	models := map[string]string{"V1": "C", "V2": "A", "V3": "B", "V4": "D"}

	reversed := make([]model.EmissionRecord, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}

	first := ByModel(records, models)
	for run, input := range [][]model.EmissionRecord{records, reversed} {
		again := ByModel(input, models)
		if len(again) != len(first) {
			t.Fatalf("run %d: expected %d groups, got %d", run, len(first), len(again))
		}
		for i := range first {
			if again[i].Model != first[i].Model ||
				!again[i].Reduction.Equal(first[i].Reduction.Decimal) ||
				!again[i].Percentage.Equal(first[i].Percentage.Decimal) ||
				again[i].VehicleCount != first[i].VehicleCount {
				t.Fatalf("run %d: group %d differs: %+v vs %+v", run, i, again[i], first[i])
			}
		}
	}

	want := []string{"D", "C", "A", "B", UnknownModel}
	for i, label := range want {
		if first[i].Model != label {
			t.Fatalf("position %d: expected %s, got %s", i, label, first[i].Model)
		}
	}
}
