package model

import (
	"encoding/json"
	"strings"
	"time"
)

type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// ParseGroupBy maps a client-supplied grouping key onto the closed set,
// falling back to daily buckets for anything it does not recognise.
func ParseGroupBy(raw string) GroupBy {
	return GroupBy(strings.ToLower(strings.TrimSpace(raw))).Normalize()
}

func (g GroupBy) Normalize() GroupBy {
	switch g {
	case GroupByWeek, GroupByMonth:
		return g
	default:
		return GroupByDay
	}
}

type HeatmapValue string

const (
	HeatmapFrequency       HeatmapValue = "frequency"
	HeatmapCarbonReduction HeatmapValue = "carbonReduction"
	HeatmapDuration        HeatmapValue = "duration"
)

// ParseHeatmapValue is case-insensitive; unknown values become frequency.
func ParseHeatmapValue(raw string) HeatmapValue {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "carbonreduction", "carbon_reduction":
		return HeatmapCarbonReduction
	case "duration":
		return HeatmapDuration
	default:
		return HeatmapFrequency
	}
}

type PredictionPeriod string

const (
	PeriodDay   PredictionPeriod = "day"
	PeriodWeek  PredictionPeriod = "week"
	PeriodMonth PredictionPeriod = "month"
)

func ParsePredictionPeriod(raw string) PredictionPeriod {
	switch PredictionPeriod(strings.ToLower(strings.TrimSpace(raw))) {
	case PeriodWeek:
		return PeriodWeek
	case PeriodMonth:
		return PeriodMonth
	default:
		return PeriodDay
	}
}

// DateRange is a pair of calendar days. Both ends are inclusive: To covers
// the whole of its day.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Bounds returns the half-open instant interval [From 00:00, To+1 00:00) in UTC.
func (r DateRange) Bounds() (time.Time, time.Time) {
	return StartOfDay(r.From), StartOfDay(r.To).AddDate(0, 0, 1)
}

// Days counts calendar days in the range, both ends included.
func (r DateRange) Days() int {
	from, to := r.Bounds()
	return int(to.Sub(from).Hours() / 24)
}

func (r DateRange) Contains(t time.Time) bool {
	from, to := r.Bounds()
	return !t.Before(from) && t.Before(to)
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MarshalJSON writes both ends as plain calendar dates.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
	}{From: r.From.Format(dateLayout), To: r.To.Format(dateLayout)})
}

const dateLayout = "2006-01-02"

type AnalyticsFilter struct {
	Range   DateRange
	GroupBy GroupBy
}

func (f AnalyticsFilter) Bucket() GroupBy {
	return f.GroupBy.Normalize()
}

// TimeWindow is the half-open instant interval [From, To). A zero end leaves
// that side open.
type TimeWindow struct {
	From time.Time
	To   time.Time
}
