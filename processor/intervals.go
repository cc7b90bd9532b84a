package processor

import (
	"time"

	"github.com/shopspring/decimal"

	"carbonflow/models"
)

const halfHour = 30 * time.Minute

// Intervals returns the per-interval emission breakdown behind TotalCO2.
func Intervals(consumption []models.ConsumptionRecord, intensity []models.IntensityRecord) ([]models.IntervalEmission, error) {
	if len(consumption) != len(intensity) {
		return nil, lengthMismatch("intensity", len(consumption), len(intensity))
	}

	rows := make([]models.IntervalEmission, len(consumption))
	for i, c := range consumption {
		actual := intensity[i].ActualValue()
		end := intensity[i].To.Time
		if end.IsZero() {
			end = c.StartInterval.Add(halfHour)
		}
		rows[i] = models.IntervalEmission{
			Start:          c.StartInterval.Time,
			End:            end,
			MeterID:        c.MeterID,
			ConsumptionKWh: c.Consumption,
			IntensityG:     actual,
			CO2Kg:          c.Consumption.Mul(decimal.NewFromFloat(actual)).Div(gramsPerKilogram),
		}
	}
	return rows, nil
}
