package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/model"
)

var recordColumns = []string{
	"id", "vehicle_id", "distance_km", "energy_kwh", "carbon_emitted_kg", "carbon_reduced_kg",
	"latitude", "longitude", "occurred_at", "created_at",
}

func TestFetchRecords_ForVehicle(t *testing.T) {
	db, mock := newMockDB(t)
	from, to := window()
	id := uuid.New()
	at := from.Add(9 * time.Hour)

	rows := sqlmock.NewRows(recordColumns).
		AddRow(id.String(), "V1", "42.5", "6.1", "5.3643", "3.1357", 31.2304, 121.4737, at, at).
		AddRow(uuid.New().String(), "V1", "10", "1.5", "1.3191", "0.6809", nil, nil, at.Add(time.Hour), at)

	mock.ExpectQuery(`FROM emission_records er WHERE .*er\.vehicle_id = \$3 ORDER BY er\.occurred_at ASC`).
		WithArgs(from, to, "V1").
		WillReturnRows(rows)

	vin := "V1"
	records, err := NewEmissionRepository(db).FetchRecords(context.Background(), &vin, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != id || !records[0].CarbonReducedKg.Equal(decimal.RequireFromString("3.1357")) {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if _, ok := records[0].Position(); !ok {
		t.Fatal("expected first record to be positioned")
	}
	if _, ok := records[1].Position(); ok {
		t.Fatal("expected second record without position")
	}
	assertExpectations(t, mock)
}

func TestFetchRecords_AllVehicles(t *testing.T) {
	db, mock := newMockDB(t)
	from, to := window()

	mock.ExpectQuery(`FROM emission_records er WHERE er\.occurred_at >= \$1 AND er\.occurred_at < \$2 ORDER BY`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := NewEmissionRepository(db).FetchRecords(context.Background(), nil, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	assertExpectations(t, mock)
}

func TestFetchRecords_Unbounded(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM emission_records er WHERE er\.vehicle_id = \$1 ORDER BY er\.occurred_at ASC`).
		WithArgs("V1").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(uuid.New().String(), "V1", "10", "1.5", "1.3191", "0.6809", nil, nil, at, at))

	vin := "V1"
	records, err := NewEmissionRepository(db).FetchRecords(context.Background(), &vin, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	assertExpectations(t, mock)
}

func TestFetchRecords_OpenEnded(t *testing.T) {
	db, mock := newMockDB(t)
	from, _ := window()

	mock.ExpectQuery(`WHERE er\.occurred_at >= \$1 AND er\.vehicle_id = \$2 ORDER BY`).
		WithArgs(from, "V1").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	vin := "V1"
	if _, err := NewEmissionRepository(db).FetchRecords(context.Background(), &vin, from, time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExpectations(t, mock)
}

func TestFetchRecords_Error(t *testing.T) {
	db, mock := newMockDB(t)
	from, to := window()

	mock.ExpectQuery(`FROM emission_records`).WillReturnError(sqlmock.ErrCancelled)

	if _, err := NewEmissionRepository(db).FetchRecords(context.Background(), nil, from, to); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchDailyTotals_FromView(t *testing.T) {
	db, mock := newMockDB(t)
	from, to := window()

	expectRelation(mock, dailyView, true)
	mock.ExpectQuery(`FROM v_emission_daily v WHERE v\.vehicle_id = \$1 AND v\.day >= \$2 AND v\.day < \$3`).
		WithArgs("V1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "distance_km", "energy_kwh", "carbon_reduced_kg"}).
			AddRow(from, "80", "12", "5.4472"))

	days, err := NewEmissionRepository(db).FetchDailyTotals(context.Background(), "V1", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 || !days[0].DistanceKm.Equal(decimal.NewFromInt(80)) || !days[0].Day.Equal(from) {
		t.Fatalf("unexpected totals %+v", days)
	}
	assertExpectations(t, mock)
}

func TestFetchDailyTotals_FallsBackToGrouping(t *testing.T) {
	db, mock := newMockDB(t)
	from, to := window()

	expectRelation(mock, dailyView, false)
	mock.ExpectQuery(`FROM emission_records er WHERE .* GROUP BY 1 ORDER BY 1 ASC`).
		WithArgs("V1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "distance_km", "energy_kwh", "carbon_reduced_kg"}).
			AddRow(from.Add(24*time.Hour), "0", "1", "-0.8794"))

	days, err := NewEmissionRepository(db).FetchDailyTotals(context.Background(), "V1", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 || !days[0].CarbonReducedKg.Equal(decimal.RequireFromString("-0.8794")) {
		t.Fatalf("unexpected totals %+v", days)
	}
	assertExpectations(t, mock)
}

func TestInsert(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO "emission_records"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewEmissionRepository(db).Insert(context.Background(), &model.EmissionRecord{
		ID:              uuid.New(),
		VehicleID:       "V1",
		DistanceKm:      decimal.NewFromInt(10),
		EnergyKwh:       decimal.NewFromInt(2),
		CarbonEmittedKg: decimal.RequireFromString("1.7588"),
		CarbonReducedKg: decimal.RequireFromString("0.2412"),
		OccurredAt:      now,
		CreatedAt:       now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExpectations(t, mock)
}
