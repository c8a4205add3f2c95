package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"carbon-analytics-service/internal/model"
)

const dailyView = "v_emission_daily"

type EmissionRepository struct {
	db *gorm.DB
}

func NewEmissionRepository(db *gorm.DB) *EmissionRepository {
	return &EmissionRepository{db: db}
}

// FetchRecords returns records with from <= occurred_at < to, oldest first.
// A zero from or to leaves that side unbounded. NULL quantities are read as zero.
func (r *EmissionRepository) FetchRecords(ctx context.Context, vin *string, from, to time.Time) ([]model.EmissionRecord, error) {
	var rows []model.EmissionRecord

	query := r.db.WithContext(ctx).
		Table("emission_records er").
		Select(`er.id, er.vehicle_id,
			COALESCE(er.distance_km, 0) AS distance_km,
			COALESCE(er.energy_kwh, 0) AS energy_kwh,
			COALESCE(er.carbon_emitted_kg, 0) AS carbon_emitted_kg,
			COALESCE(er.carbon_reduced_kg, 0) AS carbon_reduced_kg,
			er.latitude, er.longitude, er.occurred_at, er.created_at`)

	if !from.IsZero() {
		query = query.Where("er.occurred_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("er.occurred_at < ?", to)
	}
	if vin != nil {
		query = query.Where("er.vehicle_id = ?", *vin)
	}

	if err := query.Order("er.occurred_at ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchDailyTotals reads one vehicle's per-day sums from the daily view, or
// groups the raw rows itself when the view has not been created.
func (r *EmissionRepository) FetchDailyTotals(ctx context.Context, vin string, from, to time.Time) ([]model.DailyTotal, error) {
	var rows []model.DailyTotal

	var query *gorm.DB
	if r.relationExists(ctx, dailyView) {
		query = r.db.WithContext(ctx).
			Table(dailyView+" v").
			Select("v.day, v.distance_km, v.energy_kwh, v.carbon_reduced_kg").
			Where("v.vehicle_id = ? AND v.day >= ? AND v.day < ?", vin, from, to).
			Order("v.day ASC")
	} else {
		query = r.db.WithContext(ctx).
			Table("emission_records er").
			Select(`DATE_TRUNC('day', er.occurred_at AT TIME ZONE 'UTC') AS day,
				COALESCE(SUM(er.distance_km), 0) AS distance_km,
				COALESCE(SUM(er.energy_kwh), 0) AS energy_kwh,
				COALESCE(SUM(er.carbon_reduced_kg), 0) AS carbon_reduced_kg`).
			Where("er.vehicle_id = ? AND er.occurred_at >= ? AND er.occurred_at < ?", vin, from, to).
			Group("1").
			Order("1 ASC")
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Day = model.StartOfDay(rows[i].Day)
	}
	return rows, nil
}

func (r *EmissionRepository) Insert(ctx context.Context, record *model.EmissionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *EmissionRepository) relationExists(ctx context.Context, name string) bool {
	return relationExists(ctx, r.db, name)
}
