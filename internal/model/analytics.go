package model

import "time"

type CarbonSummary struct {
	TotalReduction  Fixed     `json:"total_reduction"`
	ComparedToFuel  Fixed     `json:"compared_to_fuel"`
	EquivalentTrees Fixed     `json:"equivalent_trees"`
	EconomicValue   Fixed     `json:"economic_value"`
	VehicleCount    int64     `json:"vehicle_count"`
	GeneratedFor    DateRange `json:"generated_for"`
}

type TrendPoint struct {
	Date      string `json:"date"`
	Reduction Fixed  `json:"reduction"`
	Credits   Fixed  `json:"credits"`
}

type ModelBreakdown struct {
	Model        string `json:"model"`
	Reduction    Fixed  `json:"reduction"`
	Percentage   Fixed  `json:"percentage"`
	VehicleCount int64  `json:"vehicle_count"`
}

type DrivingSummary struct {
	TotalMileage         Fixed `json:"total_mileage"`
	TotalEnergy          Fixed `json:"total_energy"`
	TotalCarbonReduction Fixed `json:"total_carbon_reduction"`
	AverageEfficiency    Fixed `json:"average_efficiency"`
}

type TimeSeriesPoint struct {
	Date            string `json:"date"`
	Mileage         Fixed  `json:"mileage"`
	Energy          Fixed  `json:"energy"`
	CarbonReduction Fixed  `json:"carbon_reduction"`
	EnergyPer100km  Fixed  `json:"energy_per_100km"`
}

type HeatmapPoint struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Value Fixed   `json:"value"`
}

type Prediction struct {
	Date            string `json:"date"`
	CarbonReduction Fixed  `json:"carbon_reduction"`
	Credits         Fixed  `json:"credits"`
}

// VehicleReduction is the summed reduction of one vehicle's trips. A nil
// bound means that side of the window was left open.
type VehicleReduction struct {
	VIN             string     `json:"vin"`
	From            *time.Time `json:"from,omitempty"`
	To              *time.Time `json:"to,omitempty"`
	Trips           int        `json:"trips"`
	CarbonReduction Fixed      `json:"carbon_reduction"`
}
