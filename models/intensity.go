package models

// Intensity holds the forecast and actual carbon intensity in gCO2/kWh.
// Actual is nil when the upstream has not published it yet.
type Intensity struct {
	Forecast float64  `json:"forecast"`
	Actual   *float64 `json:"actual"`
	Index    string   `json:"index"`
}

// IntensityRecord is one half-hour interval of national carbon intensity.
type IntensityRecord struct {
	From      Timestamp `json:"from"`
	To        Timestamp `json:"to"`
	Intensity Intensity `json:"intensity"`
}

// ActualValue returns the actual intensity, or zero when missing.
func (r IntensityRecord) ActualValue() float64 {
	if r.Intensity.Actual == nil {
		return 0
	}
	return *r.Intensity.Actual
}

// IntensityResponse mirrors the /intensity endpoint payload.
type IntensityResponse struct {
	Data []IntensityRecord `json:"data"`
}
