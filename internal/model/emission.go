package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Vehicle struct {
	VIN          string    `gorm:"column:vin;primaryKey" json:"vin"`
	Model        string    `gorm:"column:model" json:"model"`
	LicensePlate string    `gorm:"column:license_plate" json:"license_plate"`
	Manufacturer string    `gorm:"column:manufacturer" json:"manufacturer"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

// EmissionRecord is one trip's emission calculation. CarbonReducedKg is the
// baseline (combustion) emission minus the electric emission and can be negative.
type EmissionRecord struct {
	ID              uuid.UUID       `gorm:"column:id;primaryKey" json:"id"`
	VehicleID       string          `gorm:"column:vehicle_id" json:"vehicle_id"`
	DistanceKm      decimal.Decimal `gorm:"column:distance_km" json:"distance_km"`
	EnergyKwh       decimal.Decimal `gorm:"column:energy_kwh" json:"energy_kwh"`
	CarbonEmittedKg decimal.Decimal `gorm:"column:carbon_emitted_kg" json:"carbon_emitted_kg"`
	CarbonReducedKg decimal.Decimal `gorm:"column:carbon_reduced_kg" json:"carbon_reduced_kg"`
	Latitude        *float64        `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude       *float64        `gorm:"column:longitude" json:"longitude,omitempty"`
	OccurredAt      time.Time       `gorm:"column:occurred_at" json:"occurred_at"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (EmissionRecord) TableName() string { return "emission_records" }

type GeoPoint struct {
	Lat float64
	Lng float64
}

// Position reports the record's coordinates. A record only has a position
// when both latitude and longitude are present and finite.
func (r EmissionRecord) Position() (GeoPoint, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return GeoPoint{}, false
	}
	lat, lng := *r.Latitude, *r.Longitude
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: lat, Lng: lng}, true
}

// DailyTotal is one vehicle-day of summed trip quantities.
type DailyTotal struct {
	Day             time.Time       `gorm:"column:day"`
	DistanceKm      decimal.Decimal `gorm:"column:distance_km"`
	EnergyKwh       decimal.Decimal `gorm:"column:energy_kwh"`
	CarbonReducedKg decimal.Decimal `gorm:"column:carbon_reduced_kg"`
}

// TripReport is the raw trip measurement received from vehicles before the
// emission figures are derived.
type TripReport struct {
	VIN        string    `json:"vin"`
	DistanceKm float64   `json:"distance_km"`
	EnergyKwh  float64   `json:"energy_kwh"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
