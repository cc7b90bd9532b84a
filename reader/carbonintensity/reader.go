package carbonintensity

import (
	"strings"
	"time"

	"carbonflow/config"
	"carbonflow/logger"
	"carbonflow/reader/transport"
)

const (
	IntensitySource = "intensity data"
	FuelMixSource   = "fuel mix data"
)

// The two endpoints accept different timestamp layouts in the path.
const (
	intensityLayout  = "2006-01-02T15:04:05"
	generationLayout = "2006-01-02T15:04Z"
)

// Reader fetches national carbon intensity and generation mix. Both
// endpoints take the end of the first and last half-hour as their range.
type Reader struct {
	client  *transport.Client
	baseURL string
	log     *logger.Log
}

func NewReader(cfg config.CarbonIntensityConfig, client *transport.Client) *Reader {
	return &Reader{
		client:  client,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		log:     logger.GetLogger(),
	}
}

func (r *Reader) rangeURL(endpoint, layout string, from, to time.Time) string {
	return r.baseURL + "/" + endpoint + "/" + from.UTC().Format(layout) + "/" + to.UTC().Format(layout)
}
