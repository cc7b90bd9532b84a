package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"carbonflow/config"
	"carbonflow/logger"
	"carbonflow/metrics"
	"carbonflow/pipeline"
	"carbonflow/processor"
	"carbonflow/reader/carbonintensity"
	"carbonflow/reader/openvolt"
	"carbonflow/reader/transport"
	"carbonflow/writer"
)

const defaultConfigPath = "config/config.yml"

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	startDate := flag.String("start", "", "First day of the period (YYYY-MM-DD), overrides the config")
	endDate := flag.String("end", "", "Last day of the period (YYYY-MM-DD), overrides the config")
	flag.Parse()

	// flags take precedence over the file and the environment
	if *startDate != "" {
		os.Setenv("PERIOD_START_DATE", *startDate)
	}
	if *endDate != "" {
		os.Setenv("PERIOD_END_DATE", *endDate)
	}

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath, defaultConfigPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Carbonflow.Name,
		"version":     cfg.Carbonflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting carbonflow")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cw := cfg.Metrics.CloudWatch; cw.Enabled {
		if err := logger.InitCloudWatch(ctx, cw.Region, cw.Namespace); err != nil {
			log.WithError(err).Warn("cloudwatch metrics disabled")
		}
	}

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.WithError(err).Error("carbonflow run failed")
		stop()
		os.Exit(1)
	}
	log.Info("carbonflow finished")
}

// run executes one pipeline pass and writes the report to out. The report
// is written only when acquisition and aggregation succeed; sink failures
// are returned after it has been written.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log := logger.GetLogger().WithComponent("main")

	period, err := cfg.Period.Parse()
	if err != nil {
		return err
	}
	console, err := writer.NewConsoleWriter(out, cfg.Writer.Format)
	if err != nil {
		return err
	}

	client := transport.NewClient(cfg.Reader)

	var rec *metrics.Recorder
	if prom := cfg.Metrics.Prometheus; prom.Enabled {
		rec = metrics.NewRecorder()
		client.Observe(rec.ObserveRequest)
		defer func() {
			if err := rec.WriteTextfile(prom.Textfile); err != nil {
				log.WithError(err).WithFields(logger.Fields{"path": prom.Textfile}).Warn("failed to write metrics textfile")
			}
		}()
	}

	src := pipeline.Sources{
		MeterID:     cfg.Source.Openvolt.MeterID,
		Consumption: openvolt.NewReader(cfg.Source.Openvolt, client),
		Grid:        carbonintensity.NewReader(cfg.Source.CarbonIntensity, client),
	}

	result, err := pipeline.Run(ctx, src, period, processor.Options{Alignment: cfg.Processor.Alignment})
	if err != nil {
		if rec != nil {
			rec.RecordFailure()
		}
		return err
	}
	summary := result.Summary
	if rec != nil {
		rec.RecordRun(summary)
	}

	if err := console.Write(summary); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	// LogMetric writes into the fields map, so each call gets its own
	for name, value := range map[string]interface{}{
		"total_energy_kwh": summary.TotalEnergyKWh,
		"total_co2_kg":     summary.TotalCO2Kg,
		"intervals":        summary.Intervals,
	} {
		log.LogMetric("pipeline", name, value, "gauge", logger.Fields{"meter_id": summary.MeterID})
	}

	return publish(ctx, cfg, result)
}

// publish hands the run to every enabled report sink. All sinks are tried;
// their errors are joined.
func publish(ctx context.Context, cfg *config.Config, result *pipeline.Result) error {
	log := logger.GetLogger().WithComponent("main").WithFields(logger.Fields{"run_id": result.Summary.RunID})
	var errs []error

	var parquetData []byte
	if cfg.Writer.Parquet.Enabled {
		rows, err := processor.Intervals(result.Datasets.Consumption, result.Datasets.Intensity)
		if err != nil {
			errs = append(errs, fmt.Errorf("interval export: %w", err))
		} else {
			data, _, err := writer.NewParquetWriter(cfg.Writer.Parquet).Write(result.Summary, rows)
			if err != nil {
				errs = append(errs, fmt.Errorf("interval export: %w", err))
			}
			parquetData = data
		}
	}

	if cfg.Storage.S3.Enabled {
		uploader, err := writer.NewS3Uploader(ctx, cfg.Storage.S3, cfg.Carbonflow.Version)
		if err == nil {
			err = uploader.Upload(ctx, result.Summary, parquetData)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("s3 upload: %w", err))
		}
	} else {
		log.Debug("S3 storage disabled; skipping upload")
	}

	if cfg.Storage.Kafka.Enabled {
		kw, err := writer.NewKafkaWriter(cfg.Storage.Kafka)
		if err == nil {
			err = kw.Publish(ctx, result.Summary)
			if cerr := kw.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("kafka publish: %w", err))
		}
	}

	return errors.Join(errs...)
}
