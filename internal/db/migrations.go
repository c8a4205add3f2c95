package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		vin           VARCHAR(32) PRIMARY KEY,
		model         VARCHAR(128),
		license_plate VARCHAR(32),
		manufacturer  VARCHAR(128),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS emission_records (
		id                UUID PRIMARY KEY,
		vehicle_id        VARCHAR(32) NOT NULL REFERENCES vehicles (vin),
		distance_km       NUMERIC(14, 4),
		energy_kwh        NUMERIC(14, 4),
		carbon_emitted_kg NUMERIC(14, 4),
		carbon_reduced_kg NUMERIC(14, 4),
		latitude          DOUBLE PRECISION,
		longitude         DOUBLE PRECISION,
		occurred_at       TIMESTAMPTZ NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_emission_records_vehicle_time ON emission_records (vehicle_id, occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_emission_records_time ON emission_records (occurred_at);`,
	`CREATE OR REPLACE VIEW v_emission_daily AS
	SELECT
		er.vehicle_id,
		DATE_TRUNC('day', er.occurred_at AT TIME ZONE 'UTC') AS day,
		COALESCE(SUM(er.distance_km), 0) AS distance_km,
		COALESCE(SUM(er.energy_kwh), 0) AS energy_kwh,
		COALESCE(SUM(er.carbon_reduced_kg), 0) AS carbon_reduced_kg,
		COUNT(*) AS trip_count
	FROM emission_records er
	GROUP BY er.vehicle_id, 2;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
