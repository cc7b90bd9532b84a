package carbonintensity

import (
	"context"
	"fmt"
	"time"

	"carbonflow/logger"
	"carbonflow/models"
	"carbonflow/reader/transport"
)

// FetchIntensity returns the half-hourly intensity records between from and
// to. Every record must carry an actual value.
func (r *Reader) FetchIntensity(ctx context.Context, from, to time.Time) ([]models.IntensityRecord, error) {
	log := r.log.WithComponent("carbonintensity_reader").WithFields(logger.Fields{
		"operation": "fetch_intensity",
		"from":      from.Format(intensityLayout),
		"to":        to.Format(intensityLayout),
	})

	var resp models.IntensityResponse
	err := r.client.GetJSON(ctx, transport.Request{
		Source:      IntensitySource,
		URL:         r.rangeURL("intensity", intensityLayout, from, to),
		NormalizeCR: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, &transport.ParseError{Source: IntensitySource, Err: fmt.Errorf("response has no data array")}
	}
	for i, rec := range resp.Data {
		if rec.Intensity.Actual == nil {
			return nil, &transport.ParseError{
				Source: IntensitySource,
				Err:    fmt.Errorf("interval %d (%s) has no actual intensity", i, rec.From.Format(time.RFC3339)),
			}
		}
	}

	log.WithFields(logger.Fields{"records": len(resp.Data)}).Info("fetched intensity data")
	return resp.Data, nil
}
