package carbonintensity

import (
	"context"
	"fmt"
	"time"

	"carbonflow/logger"
	"carbonflow/models"
	"carbonflow/reader/transport"
)

// FetchFuelMix returns the half-hourly generation mix between from and to.
// Unknown fuel categories fail decoding.
func (r *Reader) FetchFuelMix(ctx context.Context, from, to time.Time) ([]models.FuelMixRecord, error) {
	log := r.log.WithComponent("carbonintensity_reader").WithFields(logger.Fields{
		"operation": "fetch_fuel_mix",
		"from":      from.Format(generationLayout),
		"to":        to.Format(generationLayout),
	})

	var resp models.FuelMixResponse
	err := r.client.GetJSON(ctx, transport.Request{
		Source:      FuelMixSource,
		URL:         r.rangeURL("generation", generationLayout, from, to),
		NormalizeCR: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, &transport.ParseError{Source: FuelMixSource, Err: fmt.Errorf("response has no data array")}
	}
	for i, rec := range resp.Data {
		for _, share := range rec.GenerationMix {
			// an entry without a "fuel" key never reaches Fuel.UnmarshalJSON
			if !share.Fuel.Valid() {
				return nil, &transport.ParseError{
					Source: FuelMixSource,
					Err:    fmt.Errorf("interval %d has unknown fuel category %q", i, share.Fuel),
				}
			}
			if share.Perc < 0 || share.Perc > 100 {
				return nil, &transport.ParseError{
					Source: FuelMixSource,
					Err:    fmt.Errorf("interval %d has %s share %.2f outside [0,100]", i, share.Fuel, share.Perc),
				}
			}
		}
	}

	log.WithFields(logger.Fields{"records": len(resp.Data)}).Info("fetched fuel mix data")
	return resp.Data, nil
}
