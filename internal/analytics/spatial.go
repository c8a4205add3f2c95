package analytics

import (
	"math"
	"sort"

	"carbon-analytics-service/internal/model"
)

// ExactCoordinates disables grid snapping in GroupByPosition.
const ExactCoordinates = -1

type Cell struct {
	Point   model.GeoPoint
	Records []model.EmissionRecord
}

// GroupByPosition groups positioned records by coordinate. With a negative
// precision coordinates must match exactly; otherwise both axes are rounded to
// that many decimal places first. Records without a position are skipped.
// Cells come back ordered by latitude, then longitude.
func GroupByPosition(records []model.EmissionRecord, precision int) []Cell {
	index := make(map[model.GeoPoint]int)
	cells := make([]Cell, 0)
	for _, rec := range records {
		point, ok := rec.Position()
		if !ok {
			continue
		}
		point = model.GeoPoint{Lat: snap(point.Lat, precision), Lng: snap(point.Lng, precision)}
		i, seen := index[point]
		if !seen {
			i = len(cells)
			index[point] = i
			cells = append(cells, Cell{Point: point})
		}
		cells[i].Records = append(cells[i].Records, rec)
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Point.Lat != cells[j].Point.Lat {
			return cells[i].Point.Lat < cells[j].Point.Lat
		}
		return cells[i].Point.Lng < cells[j].Point.Lng
	})
	return cells
}

func snap(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}
