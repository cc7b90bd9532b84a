package processor

import (
	"sort"

	"github.com/shopspring/decimal"

	"carbonflow/models"
)

var gramsPerKilogram = decimal.NewFromInt(1000)

// TotalEnergy is the sum of all interval consumption in kWh.
func TotalEnergy(consumption []models.ConsumptionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, c := range consumption {
		total = total.Add(c.Consumption)
	}
	return total
}

// TotalCO2 pairs consumption with intensity by index and returns the
// emitted CO2 in kg: sum(kWh * gCO2/kWh) / 1000.
func TotalCO2(consumption []models.ConsumptionRecord, intensity []models.IntensityRecord) (decimal.Decimal, error) {
	if len(consumption) != len(intensity) {
		return decimal.Zero, lengthMismatch("intensity", len(consumption), len(intensity))
	}
	grams := decimal.Zero
	for i, c := range consumption {
		grams = grams.Add(c.Consumption.Mul(decimal.NewFromFloat(intensity[i].ActualValue())))
	}
	return grams.Div(gramsPerKilogram), nil
}

// AverageFuelMix returns the mean share of every fuel across records,
// highest first. Fuels with equal means keep their enumeration order and
// fuels absent from the data are reported as zero.
func AverageFuelMix(records []models.FuelMixRecord) []models.FuelShare {
	sums := make(map[models.Fuel]float64, len(models.Fuels))
	if n := float64(len(records)); n > 0 {
		for _, rec := range records {
			for _, share := range rec.GenerationMix {
				sums[share.Fuel] += share.Perc / n
			}
		}
	}

	mix := make([]models.FuelShare, len(models.Fuels))
	for i, fuel := range models.Fuels {
		mix[i] = models.FuelShare{Fuel: fuel, Perc: sums[fuel]}
	}
	sort.SliceStable(mix, func(i, j int) bool {
		return mix[i].Perc > mix[j].Perc
	})
	return mix
}

// Aggregate reduces the three datasets to a Summary. Only the computed
// fields and the interval count are set. It has no side effects.
func Aggregate(in models.Datasets, opts Options) (models.Summary, error) {
	if err := opts.validate(); err != nil {
		return models.Summary{}, err
	}
	if len(in.Consumption) != len(in.Intensity) {
		return models.Summary{}, lengthMismatch("intensity", len(in.Consumption), len(in.Intensity))
	}
	// the national fuel mix is averaged on its own, so only strict mode
	// requires it to match consumption interval for interval
	if opts.strict() && len(in.Consumption) != len(in.FuelMix) {
		return models.Summary{}, lengthMismatch("fuel mix", len(in.Consumption), len(in.FuelMix))
	}
	if opts.strict() {
		if err := checkAlignment(in); err != nil {
			return models.Summary{}, err
		}
	}

	co2, err := TotalCO2(in.Consumption, in.Intensity)
	if err != nil {
		return models.Summary{}, err
	}

	return models.Summary{
		Intervals:      len(in.Consumption),
		TotalEnergyKWh: TotalEnergy(in.Consumption),
		TotalCO2Kg:     co2,
		FuelMix:        AverageFuelMix(in.FuelMix),
	}, nil
}
