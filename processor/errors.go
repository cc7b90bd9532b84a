package processor

import (
	"errors"
	"fmt"
	"time"
)

// ErrMisaligned matches every MisalignedDataError with errors.Is.
var ErrMisaligned = errors.New("misaligned data")

// MisalignedDataError reports that a series cannot be paired interval by
// interval with the consumption series. Index is -1 when the lengths differ.
type MisalignedDataError struct {
	Series         string
	ConsumptionLen int
	SeriesLen      int
	Index          int
	Consumption    time.Time
	Other          time.Time
}

func (e *MisalignedDataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: consumption has %d intervals, %s has %d", ErrMisaligned, e.ConsumptionLen, e.Series, e.SeriesLen)
	}
	return fmt.Sprintf("%s: interval %d of consumption starts at %s, %s starts at %s",
		ErrMisaligned, e.Index, e.Consumption.Format(time.RFC3339), e.Series, e.Other.Format(time.RFC3339))
}

func (e *MisalignedDataError) Is(target error) bool {
	return target == ErrMisaligned
}

func lengthMismatch(series string, consumptionLen, seriesLen int) error {
	return &MisalignedDataError{
		Series:         series,
		ConsumptionLen: consumptionLen,
		SeriesLen:      seriesLen,
		Index:          -1,
	}
}
