package openvolt

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"carbonflow/config"
	"carbonflow/logger"
	"carbonflow/models"
	"carbonflow/reader/transport"
)

// Source names the consumption dataset in errors and logs.
const Source = "consumption data"

// Reader fetches half-hourly interval data for a meter from Openvolt.
type Reader struct {
	client      *transport.Client
	baseURL     string
	apiKey      string
	granularity string
	log         *logger.Log
}

func NewReader(cfg config.OpenvoltConfig, client *transport.Client) *Reader {
	granularity := cfg.Granularity
	if granularity == "" {
		granularity = "hh"
	}
	return &Reader{
		client:      client,
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		apiKey:      cfg.APIKey,
		granularity: granularity,
		log:         logger.GetLogger(),
	}
}

// FetchConsumption returns the half-hourly consumption of meterID between
// startDate and endDate (YYYY-MM-DD, inclusive). Records are returned in the
// order the API sends them.
func (r *Reader) FetchConsumption(ctx context.Context, meterID, startDate, endDate string) ([]models.ConsumptionRecord, error) {
	log := r.log.WithComponent("openvolt_reader").WithFields(logger.Fields{
		"meter_id":  meterID,
		"operation": "fetch_consumption",
	})

	q := url.Values{}
	q.Set("meter_id", meterID)
	q.Set("granularity", r.granularity)
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)

	var resp models.ConsumptionResponse
	start := time.Now()
	err := r.client.GetJSON(ctx, transport.Request{
		Source:  Source,
		URL:     r.baseURL + "/v1/interval-data?" + q.Encode(),
		Headers: map[string]string{"x-api-key": r.apiKey},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, &transport.ParseError{Source: Source, Err: fmt.Errorf("response has no data array")}
	}
	for i, rec := range resp.Data {
		if rec.StartInterval.IsZero() {
			return nil, &transport.ParseError{
				Source: Source,
				Err:    fmt.Errorf("interval %d has no start_interval", i),
			}
		}
		if rec.Consumption.IsNegative() {
			return nil, &transport.ParseError{
				Source: Source,
				Err:    fmt.Errorf("interval %d (%s) has negative consumption %s", i, rec.StartInterval.Format(time.RFC3339), rec.Consumption),
			}
		}
	}

	log.WithFields(logger.Fields{
		"records":     len(resp.Data),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("fetched consumption data")
	return resp.Data, nil
}
