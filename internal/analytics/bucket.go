package analytics

import (
	"sort"
	"time"

	"carbon-analytics-service/internal/model"
)

const DateLayout = "2006-01-02"

// Bucket is the set of records whose OccurredAt falls in [Start, End).
type Bucket struct {
	Start   time.Time
	End     time.Time
	Label   string
	Ordinal int
	Records []model.EmissionRecord
}

// BucketStart returns the first instant of the bucket containing t. Weeks are
// ISO weeks and start on Monday; months start on their first day.
func BucketStart(t time.Time, groupBy model.GroupBy) time.Time {
	day := model.StartOfDay(t)
	switch groupBy.Normalize() {
	case model.GroupByWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case model.GroupByMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// BucketEnd returns the exclusive end of the bucket starting at start.
func BucketEnd(start time.Time, groupBy model.GroupBy) time.Time {
	switch groupBy.Normalize() {
	case model.GroupByWeek:
		return start.AddDate(0, 0, 7)
	case model.GroupByMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Partition drops records outside rng and groups the rest into non-empty
// buckets ordered by start. Unknown grouping keys bucket by day.
func Partition(records []model.EmissionRecord, rng model.DateRange, groupBy model.GroupBy) []Bucket {
	groupBy = groupBy.Normalize()

	index := make(map[int64]int)
	buckets := make([]Bucket, 0)
	for _, rec := range records {
		if !rng.Contains(rec.OccurredAt) {
			continue
		}
		start := BucketStart(rec.OccurredAt, groupBy)
		key := start.Unix()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{
				Start: start,
				End:   BucketEnd(start, groupBy),
				Label: start.Format(DateLayout),
			})
		}
		buckets[i].Records = append(buckets[i].Records, rec)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	for i := range buckets {
		buckets[i].Ordinal = i
	}
	return buckets
}
