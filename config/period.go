package config

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

const halfHour = 30 * time.Minute

// Period is a parsed, validated PeriodConfig.
type Period struct {
	Start time.Time
	End   time.Time
}

// Parse validates the configured dates. Both are required and start must
// not be after end.
func (p PeriodConfig) Parse() (Period, error) {
	if p.StartDate == "" || p.EndDate == "" {
		return Period{}, fmt.Errorf("period.start_date and period.end_date are required")
	}
	start, err := time.ParseInLocation(dateLayout, p.StartDate, time.UTC)
	if err != nil {
		return Period{}, fmt.Errorf("period.start_date '%s' is not YYYY-MM-DD: %w", p.StartDate, err)
	}
	end, err := time.ParseInLocation(dateLayout, p.EndDate, time.UTC)
	if err != nil {
		return Period{}, fmt.Errorf("period.end_date '%s' is not YYYY-MM-DD: %w", p.EndDate, err)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("period.end_date %s is before period.start_date %s", p.EndDate, p.StartDate)
	}
	return Period{Start: start, End: end}, nil
}

// StartDate and EndDate format the bounds for the consumption endpoint.
func (p Period) StartDate() string { return p.Start.Format(dateLayout) }
func (p Period) EndDate() string   { return p.End.Format(dateLayout) }

// IntervalEndFrom is the end of the first half-hour of the period. The
// carbon intensity endpoints label intervals by their end, so the first
// interval starting at 00:00 is requested as 00:30.
func (p Period) IntervalEndFrom() time.Time {
	return p.Start.Add(halfHour)
}

// IntervalEndTo is the end of the last half-hour of the period, i.e.
// midnight following the end date.
func (p Period) IntervalEndTo() time.Time {
	return p.End.AddDate(0, 0, 1)
}

// Intervals is the expected number of half-hour slots in the period.
func (p Period) Intervals() int {
	return int(p.IntervalEndTo().Sub(p.Start) / halfHour)
}
