package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Datasets groups the three fetched series handed from acquisition to
// aggregation.
type Datasets struct {
	Consumption []ConsumptionRecord
	Intensity   []IntensityRecord
	FuelMix     []FuelMixRecord
}

// Summary is the result of one pipeline run.
type Summary struct {
	RunID          string          `json:"run_id"`
	MeterID        string          `json:"meter_id"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	Intervals      int             `json:"intervals"`
	TotalEnergyKWh decimal.Decimal `json:"total_energy_kwh"`
	TotalCO2Kg     decimal.Decimal `json:"total_co2_kg"`
	FuelMix        []FuelShare     `json:"fuel_mix"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// IntervalEmission is the per-interval breakdown used by the export sinks.
type IntervalEmission struct {
	Start          time.Time
	End            time.Time
	MeterID        string
	ConsumptionKWh decimal.Decimal
	IntensityG     float64
	CO2Kg          decimal.Decimal
}
