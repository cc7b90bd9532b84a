package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ConsumptionRecord is one half-hour interval of metered use. The upstream
// API encodes the quantity as a string; decimal.Decimal keeps it exact.
type ConsumptionRecord struct {
	StartInterval Timestamp       `json:"start_interval"`
	MeterID       string          `json:"meter_id"`
	MeterNumber   string          `json:"meter_number"`
	CustomerID    string          `json:"customer_id"`
	Consumption   decimal.Decimal `json:"consumption"`
	Units         string          `json:"consumption_units"`
}

// UnmarshalJSON requires the consumption quantity. decimal.Decimal leaves a
// missing or null value at zero, which would be indistinguishable from a
// metered zero.
func (r *ConsumptionRecord) UnmarshalJSON(data []byte) error {
	type plain ConsumptionRecord
	aux := struct {
		*plain
		Consumption decimal.NullDecimal `json:"consumption"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if !aux.Consumption.Valid {
		return fmt.Errorf("consumption is missing or null")
	}
	r.Consumption = aux.Consumption.Decimal
	return nil
}

// ConsumptionResponse mirrors the interval-data endpoint payload.
type ConsumptionResponse struct {
	StartInterval string              `json:"startInterval"`
	EndInterval   string              `json:"endInterval"`
	Granularity   string              `json:"granularity"`
	Data          []ConsumptionRecord `json:"data"`
}
