package processor

import (
	"fmt"

	"carbonflow/config"
	"carbonflow/models"
)

// Options controls how the series are paired.
type Options struct {
	// Alignment is config.AlignmentPositional (the default) or
	// config.AlignmentStrict.
	Alignment string
}

func (o Options) strict() bool {
	return o.Alignment == config.AlignmentStrict
}

func (o Options) validate() error {
	switch o.Alignment {
	case "", config.AlignmentPositional, config.AlignmentStrict:
		return nil
	}
	return fmt.Errorf("unknown alignment mode '%s'", o.Alignment)
}

// checkAlignment verifies that every intensity and fuel mix interval starts
// when the consumption interval at the same index starts.
func checkAlignment(in models.Datasets) error {
	for i, c := range in.Consumption {
		if from := in.Intensity[i].From; !from.Equal(c.StartInterval.Time) {
			return &MisalignedDataError{
				Series:         "intensity",
				ConsumptionLen: len(in.Consumption),
				SeriesLen:      len(in.Intensity),
				Index:          i,
				Consumption:    c.StartInterval.Time,
				Other:          from.Time,
			}
		}
		if from := in.FuelMix[i].From; !from.Equal(c.StartInterval.Time) {
			return &MisalignedDataError{
				Series:         "fuel mix",
				ConsumptionLen: len(in.Consumption),
				SeriesLen:      len(in.FuelMix),
				Index:          i,
				Consumption:    c.StartInterval.Time,
				Other:          from.Time,
			}
		}
	}
	return nil
}
