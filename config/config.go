package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Carbonflow CarbonflowConfig `yaml:"carbonflow"`
	Period     PeriodConfig     `yaml:"period"`
	Reader     ReaderConfig     `yaml:"reader"`
	Source     SourceConfig     `yaml:"source"`
	Processor  ProcessorConfig  `yaml:"processor"`
	Writer     WriterConfig     `yaml:"writer"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type CarbonflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// PeriodConfig is the closed date range of a run, both ends inclusive,
// formatted YYYY-MM-DD.
type PeriodConfig struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

type ReaderConfig struct {
	Timeout        time.Duration        `yaml:"timeout"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
	UserAgent      string               `yaml:"user_agent"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type SourceConfig struct {
	Openvolt        OpenvoltConfig        `yaml:"openvolt"`
	CarbonIntensity CarbonIntensityConfig `yaml:"carbon_intensity"`
}

type OpenvoltConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	MeterID     string `yaml:"meter_id"`
	Granularity string `yaml:"granularity"`
}

type CarbonIntensityConfig struct {
	URL string `yaml:"url"`
}

const (
	AlignmentPositional = "positional"
	AlignmentStrict     = "strict"
)

type ProcessorConfig struct {
	Alignment string `yaml:"alignment"`
}

type WriterConfig struct {
	Format  string        `yaml:"format"`
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3    S3Config    `yaml:"s3"`
	Kafka KafkaConfig `yaml:"kafka"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// PrometheusConfig enables a node_exporter textfile written at the end of
// every run.
type PrometheusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		Carbonflow: CarbonflowConfig{Name: "carbonflow", Version: "dev"},
		Reader: ReaderConfig{
			Timeout:   30 * time.Second,
			RateLimit: RateLimitConfig{RequestsPerSecond: 5, BurstSize: 3},
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    4,
				MaxConnsPerHost: 4,
				IdleConnTimeout: 90 * time.Second,
			},
			UserAgent: "carbonflow/1.0",
		},
		Source: SourceConfig{
			Openvolt: OpenvoltConfig{
				URL:         "https://api.openvolt.com",
				Granularity: "hh",
			},
			CarbonIntensity: CarbonIntensityConfig{URL: "https://api.carbonintensity.org.uk"},
		},
		Processor: ProcessorConfig{Alignment: AlignmentPositional},
		Writer: WriterConfig{
			Format:  "text",
			Parquet: ParquetConfig{Compression: "snappy"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
	}
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Processor.Alignment = strings.ToLower(strings.TrimSpace(config.Processor.Alignment))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides lets secrets and the run parameters come from the
// environment instead of the committed YAML file.
func applyEnvOverrides(config *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"OPENVOLT_API_KEY", &config.Source.Openvolt.APIKey},
		{"OPENVOLT_METER_ID", &config.Source.Openvolt.MeterID},
		{"OPENVOLT_URL", &config.Source.Openvolt.URL},
		{"CARBON_INTENSITY_URL", &config.Source.CarbonIntensity.URL},
		{"PERIOD_START_DATE", &config.Period.StartDate},
		{"PERIOD_END_DATE", &config.Period.EndDate},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = strings.TrimSpace(v)
		}
	}

	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Carbonflow.Name == "" {
		return fmt.Errorf("carbonflow.name is required")
	}

	if _, err := cfg.Period.Parse(); err != nil {
		return err
	}

	if cfg.Source.Openvolt.URL == "" {
		return fmt.Errorf("source.openvolt.url is required")
	}
	if cfg.Source.Openvolt.APIKey == "" {
		return fmt.Errorf("source.openvolt.api_key is required (or set OPENVOLT_API_KEY)")
	}
	if cfg.Source.Openvolt.MeterID == "" {
		return fmt.Errorf("source.openvolt.meter_id is required (or set OPENVOLT_METER_ID)")
	}
	if cfg.Source.Openvolt.Granularity != "hh" {
		return fmt.Errorf("source.openvolt.granularity must be 'hh', got '%s'", cfg.Source.Openvolt.Granularity)
	}
	if cfg.Source.CarbonIntensity.URL == "" {
		return fmt.Errorf("source.carbon_intensity.url is required")
	}

	if cfg.Reader.Timeout < 0 {
		return fmt.Errorf("reader.timeout must not be negative")
	}

	switch cfg.Processor.Alignment {
	case AlignmentPositional, AlignmentStrict:
	default:
		return fmt.Errorf("processor.alignment must be '%s' or '%s', got '%s'", AlignmentPositional, AlignmentStrict, cfg.Processor.Alignment)
	}

	switch cfg.Writer.Format {
	case "text", "json":
	default:
		return fmt.Errorf("writer.format must be 'text' or 'json', got '%s'", cfg.Writer.Format)
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Metrics.Prometheus.Enabled && cfg.Metrics.Prometheus.Textfile == "" {
		return fmt.Errorf("metrics.prometheus.textfile is required when prometheus is enabled")
	}

	if cfg.Storage.Kafka.Enabled {
		if len(cfg.Storage.Kafka.Brokers) == 0 {
			return fmt.Errorf("storage.kafka.brokers is required when kafka is enabled")
		}
		if cfg.Storage.Kafka.Topic == "" {
			return fmt.Errorf("storage.kafka.topic is required when kafka is enabled")
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
