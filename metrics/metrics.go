package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"carbonflow/models"
)

const (
	metricPrefix = "carbonflow_"

	resultSuccess = "success"
	resultError   = "error"
)

// Recorder collects the metrics of a run in its own registry. The run is a
// batch job, so the registry is written once as a node_exporter textfile
// rather than scraped.
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	runs        *prometheus.CounterVec
	energy      *prometheus.GaugeVec
	co2         *prometheus.GaugeVec
	intervals   *prometheus.GaugeVec
	fuelShare   *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_requests_total",
				Help: "Upstream requests by dataset, status code and result",
			},
			[]string{"source", "code", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_request_duration_seconds",
				Help:    "Upstream request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		),
		energy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "energy_consumed_kwh",
				Help: "Total energy consumed over the period",
			},
			[]string{"meter_id"},
		),
		co2: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "co2_emitted_kg",
				Help: "Total CO2 emitted over the period",
			},
			[]string{"meter_id"},
		),
		intervals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "intervals",
				Help: "Half-hour intervals aggregated",
			},
			[]string{"meter_id"},
		),
		fuelShare: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "fuel_mix_percent",
				Help: "Average national generation share by fuel",
			},
			[]string{"fuel"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}
	r.registry.MustRegister(r.requests, r.latency, r.runs, r.energy, r.co2, r.intervals, r.fuelShare, r.lastSuccess)
	return r
}

// ObserveRequest matches transport.Observer.
func (r *Recorder) ObserveRequest(source string, status int, d time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	r.requests.WithLabelValues(source, strconv.Itoa(status), result).Inc()
	r.latency.WithLabelValues(source).Observe(d.Seconds())
}

func (r *Recorder) RecordRun(s models.Summary) {
	r.runs.WithLabelValues(resultSuccess).Inc()
	r.energy.WithLabelValues(s.MeterID).Set(s.TotalEnergyKWh.InexactFloat64())
	r.co2.WithLabelValues(s.MeterID).Set(s.TotalCO2Kg.InexactFloat64())
	r.intervals.WithLabelValues(s.MeterID).Set(float64(s.Intervals))
	for _, share := range s.FuelMix {
		r.fuelShare.WithLabelValues(share.Fuel.String()).Set(share.Perc)
	}
	r.lastSuccess.Set(float64(s.GeneratedAt.Unix()))
}

func (r *Recorder) RecordFailure() {
	r.runs.WithLabelValues(resultError).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format. The file
// is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
