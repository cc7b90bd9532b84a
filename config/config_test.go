package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

const minimalConfig = `carbonflow:
  name: "TestApp"
  version: "1.0"
period:
  start_date: "2023-01-01"
  end_date: "2023-01-31"
source:
  openvolt:
    api_key: "test-key"
    meter_id: "meter-1"
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Carbonflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Carbonflow.Name)
	}
	if cfg.Source.Openvolt.URL != "https://api.openvolt.com" {
		t.Errorf("default openvolt url not applied: %s", cfg.Source.Openvolt.URL)
	}
	if cfg.Reader.Timeout != 30*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.Reader.Timeout)
	}
	if cfg.Processor.Alignment != AlignmentPositional {
		t.Errorf("unexpected alignment: %s", cfg.Processor.Alignment)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OPENVOLT_API_KEY", "env-key")
	t.Setenv("OPENVOLT_METER_ID", "env-meter")
	t.Setenv("PERIOD_END_DATE", "2023-01-02")
	path := writeTempConfig(t, minimalConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Source.Openvolt.APIKey != "env-key" {
		t.Errorf("api key = %s", cfg.Source.Openvolt.APIKey)
	}
	if cfg.Source.Openvolt.MeterID != "env-meter" {
		t.Errorf("meter id = %s", cfg.Source.Openvolt.MeterID)
	}
	if cfg.Period.EndDate != "2023-01-02" {
		t.Errorf("end date = %s", cfg.Period.EndDate)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"bad alignment", "processor:\n  alignment: fuzzy\n", "processor.alignment"},
		{"bad format", "writer:\n  format: xml\n", "writer.format"},
		{"kafka without topic", "storage:\n  kafka:\n    enabled: true\n    brokers: [\"b:9092\"]\n", "storage.kafka.topic"},
		{"prometheus without textfile", "metrics:\n  prometheus:\n    enabled: true\n", "metrics.prometheus.textfile"},
		{"s3 bad bucket", "storage:\n  s3:\n    enabled: true\n    bucket: Bad_Bucket\n    region: eu-west-2\n", "invalid"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeTempConfig(t, minimalConfig+c.extra)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", c.wantErr)
			}
			if !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("error %q does not contain %q", err, c.wantErr)
			}
		})
	}
}

func TestLoadConfigRejectsGranularity(t *testing.T) {
	path := writeTempConfig(t, strings.Replace(minimalConfig, `meter_id: "meter-1"`, "meter_id: \"meter-1\"\n    granularity: \"day\"", 1))
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "granularity") {
		t.Fatalf("expected granularity error, got %v", err)
	}
}

func TestLoadConfigRequiresCredential(t *testing.T) {
	t.Setenv("OPENVOLT_API_KEY", "")
	path := writeTempConfig(t, `carbonflow:
  name: "TestApp"
period:
  start_date: "2023-01-01"
  end_date: "2023-01-31"
source:
  openvolt:
    meter_id: "meter-1"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestPeriod(t *testing.T) {
	p, err := PeriodConfig{StartDate: "2023-01-01", EndDate: "2023-01-31"}.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := p.IntervalEndFrom(); !got.Equal(time.Date(2023, 1, 1, 0, 30, 0, 0, time.UTC)) {
		t.Errorf("IntervalEndFrom = %v", got)
	}
	if got := p.IntervalEndTo(); !got.Equal(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("IntervalEndTo = %v", got)
	}
	if got := p.Intervals(); got != 31*48 {
		t.Errorf("Intervals = %d, want %d", got, 31*48)
	}
	if p.StartDate() != "2023-01-01" || p.EndDate() != "2023-01-31" {
		t.Errorf("dates = %s %s", p.StartDate(), p.EndDate())
	}

	if _, err := (PeriodConfig{StartDate: "2023-02-01", EndDate: "2023-01-01"}).Parse(); err == nil {
		t.Error("expected error for reversed period")
	}
	if _, err := (PeriodConfig{StartDate: "01/01/2023", EndDate: "2023-01-01"}).Parse(); err == nil {
		t.Error("expected error for bad layout")
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "config.yml")
	prod := filepath.Join(dir, "config.production.yml")
	if err := os.WriteFile(prod, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("APP_ENV", "prod")
	if got := ResolvePath("", def); got != prod {
		t.Errorf("ResolvePath = %s, want %s", got, prod)
	}
	if got := ResolvePath("/elsewhere.yml", def); got != "/elsewhere.yml" {
		t.Errorf("explicit path rewritten: %s", got)
	}

	t.Setenv("APP_ENV", "")
	if got := ResolvePath("", def); got != def {
		t.Errorf("ResolvePath = %s, want %s", got, def)
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
