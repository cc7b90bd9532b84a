package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"carbonflow/config"
	"carbonflow/logger"
	"carbonflow/models"
	"carbonflow/processor"
)

type ConsumptionSource interface {
	FetchConsumption(ctx context.Context, meterID, startDate, endDate string) ([]models.ConsumptionRecord, error)
}

type GridSource interface {
	FetchIntensity(ctx context.Context, from, to time.Time) ([]models.IntensityRecord, error)
	FetchFuelMix(ctx context.Context, from, to time.Time) ([]models.FuelMixRecord, error)
}

// Sources are the three upstream datasets of a run.
type Sources struct {
	MeterID     string
	Consumption ConsumptionSource
	Grid        GridSource
}

// Result is a completed run.
type Result struct {
	Summary  models.Summary
	Datasets models.Datasets
}

// Acquire fetches the three datasets concurrently. It returns only when all
// three succeeded; the first failure cancels the others and is returned.
func Acquire(ctx context.Context, src Sources, period config.Period) (models.Datasets, error) {
	log := logger.GetLogger().WithComponent("pipeline").WithFields(logger.Fields{
		"operation": "acquire",
		"meter_id":  src.MeterID,
		"start":     period.StartDate(),
		"end":       period.EndDate(),
	})
	start := time.Now()

	var out models.Datasets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := src.Consumption.FetchConsumption(gctx, src.MeterID, period.StartDate(), period.EndDate())
		if err != nil {
			return err
		}
		out.Consumption = records
		return nil
	})
	g.Go(func() error {
		records, err := src.Grid.FetchIntensity(gctx, period.IntervalEndFrom(), period.IntervalEndTo())
		if err != nil {
			return err
		}
		out.Intensity = records
		return nil
	})
	g.Go(func() error {
		records, err := src.Grid.FetchFuelMix(gctx, period.IntervalEndFrom(), period.IntervalEndTo())
		if err != nil {
			return err
		}
		out.FuelMix = records
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("data acquisition failed")
		return models.Datasets{}, err
	}

	logger.LogPerformanceEntry(log, "pipeline", "acquire", time.Since(start), logger.Fields{
		"consumption_records": len(out.Consumption),
		"intensity_records":   len(out.Intensity),
		"fuel_mix_records":    len(out.FuelMix),
	})
	if expected := period.Intervals(); len(out.Consumption) != expected {
		log.WithFields(logger.Fields{
			"expected": expected,
			"received": len(out.Consumption),
		}).Warn("consumption interval count differs from period length")
	}
	return out, nil
}

// Run acquires, aggregates and stamps the run metadata.
func Run(ctx context.Context, src Sources, period config.Period, opts processor.Options) (*Result, error) {
	log := logger.GetLogger().WithComponent("pipeline")

	data, err := Acquire(ctx, src, period)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}

	if len(data.FuelMix) != len(data.Consumption) && opts.Alignment != config.AlignmentStrict {
		log.WithFields(logger.Fields{
			"consumption_intervals": len(data.Consumption),
			"fuel_mix_intervals":    len(data.FuelMix),
		}).Warn("fuel mix interval count differs from consumption")
	}

	summary, err := processor.Aggregate(data, opts)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	summary.RunID = uuid.NewString()
	summary.MeterID = src.MeterID
	summary.PeriodStart = period.StartDate()
	summary.PeriodEnd = period.EndDate()
	summary.GeneratedAt = time.Now().UTC()

	log.WithFields(logger.Fields{
		"run_id":       summary.RunID,
		"intervals":    summary.Intervals,
		"total_kwh":    summary.TotalEnergyKWh.String(),
		"total_co2_kg": summary.TotalCO2Kg.StringFixed(2),
	}).Info("run aggregated")

	return &Result{Summary: summary, Datasets: data}, nil
}
