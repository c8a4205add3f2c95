package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

// AverageDailyReduction spreads the history's total reduction over the whole
// calendar days between historyStart and historyEnd, never fewer than one.
func AverageDailyReduction(history []model.EmissionRecord, historyStart, historyEnd time.Time) decimal.Decimal {
	days := int64(model.StartOfDay(historyEnd).Sub(model.StartOfDay(historyStart)).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return Div(Sum(history).CarbonReducedKg, decimal.NewFromInt(days))
}

// PeriodDays is the number of days one prediction period stands for. Months
// are a flat 30 days.
func PeriodDays(period model.PredictionPeriod) int64 {
	switch period {
	case model.PeriodWeek:
		return 7
	case model.PeriodMonth:
		return 30
	default:
		return 1
	}
}

// Predict extrapolates the daily average into count consecutive periods
// starting on the day of now. Every period carries the same value.
func Predict(avgDaily decimal.Decimal, period model.PredictionPeriod, count int, now time.Time, f Factors) []model.Prediction {
	if count <= 0 {
		return []model.Prediction{}
	}

	perPeriod := avgDaily.Mul(decimal.NewFromInt(PeriodDays(period)))
	reduction := Quantity(perPeriod)
	credits := Quantity(perPeriod.Mul(f.Credit))
	start := model.StartOfDay(now)

	predictions := make([]model.Prediction, 0, count)
	for i := 0; i < count; i++ {
		predictions = append(predictions, model.Prediction{
			Date:            periodStart(start, period, i).Format(DateLayout),
			CarbonReduction: reduction,
			Credits:         credits,
		})
	}
	return predictions
}

func periodStart(start time.Time, period model.PredictionPeriod, i int) time.Time {
	switch period {
	case model.PeriodWeek:
		return start.AddDate(0, 0, 7*i)
	case model.PeriodMonth:
		// Clamp to the last day of shorter months instead of spilling over.
		first := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		day := start.Day()
		if last := first.AddDate(0, 1, -1).Day(); day > last {
			day = last
		}
		return first.AddDate(0, 0, day-1)
	default:
		return start.AddDate(0, 0, i)
	}
}
