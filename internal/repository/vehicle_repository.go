package repository

import (
	"context"

	"gorm.io/gorm"

	"carbon-analytics-service/internal/model"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) VehicleExists(ctx context.Context, vin string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Vehicle{}).
		Where("vin = ?", vin).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ResolveModels maps each known VIN to its model label. VINs missing from the
// vehicles table are absent from the result.
func (r *VehicleRepository) ResolveModels(ctx context.Context, vins []string) (map[string]string, error) {
	result := make(map[string]string, len(vins))
	if len(vins) == 0 {
		return result, nil
	}

	type row struct {
		VIN   string
		Model *string
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("vehicles").
		Select("vin, model").
		Where("vin IN ?", vins).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.Model != nil {
			result[row.VIN] = *row.Model
		}
	}
	return result, nil
}

func (r *VehicleRepository) CountVehicles(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Vehicle{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *VehicleRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
