package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	appconfig "carbonflow/config"
	"carbonflow/logger"
	"carbonflow/models"
)

// IntervalRow is one half-hour of the emissions export.
type IntervalRow struct {
	RunID          string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	MeterID        string  `parquet:"name=meter_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Start          int64   `parquet:"name=interval_start, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	End            int64   `parquet:"name=interval_end, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	ConsumptionKWh float64 `parquet:"name=consumption_kwh, type=DOUBLE"`
	IntensityG     float64 `parquet:"name=intensity_g_per_kwh, type=DOUBLE"`
	CO2Kg          float64 `parquet:"name=co2_kg, type=DOUBLE"`
}

// memoryFile is a write-only source.ParquetFile backed by a buffer.
type memoryFile struct {
	buffer *bytes.Buffer
}

func newMemoryFile() *memoryFile {
	return &memoryFile{buffer: &bytes.Buffer{}}
}

func (m *memoryFile) Create(name string) (source.ParquetFile, error) { return m, nil }
func (m *memoryFile) Open(name string) (source.ParquetFile, error)   { return m, nil }

// Seek only reports the current size; the writer never seeks backwards.
func (m *memoryFile) Seek(offset int64, whence int) (int64, error) {
	return int64(m.buffer.Len()), nil
}

func (m *memoryFile) Read(b []byte) (int, error)  { return m.buffer.Read(b) }
func (m *memoryFile) Write(b []byte) (int, error) { return m.buffer.Write(b) }
func (m *memoryFile) Close() error                { return nil }
func (m *memoryFile) Bytes() []byte               { return m.buffer.Bytes() }

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch name {
	case "snappy", "":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	}
	return parquet.CompressionCodec_UNCOMPRESSED, fmt.Errorf("unsupported parquet compression '%s'", name)
}

// EncodeParquet serialises the interval breakdown of a run.
func EncodeParquet(runID string, rows []models.IntervalEmission, compression string) ([]byte, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}

	fw := newMemoryFile()
	pw, err := pqwriter.NewParquetWriter(fw, new(IntervalRow), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, r := range rows {
		record := IntervalRow{
			RunID:          runID,
			MeterID:        r.MeterID,
			Start:          r.Start.UnixMilli(),
			End:            r.End.UnixMilli(),
			ConsumptionKWh: r.ConsumptionKWh.InexactFloat64(),
			IntensityG:     r.IntensityG,
			CO2Kg:          r.CO2Kg.InexactFloat64(),
		}
		if err := pw.Write(record); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}

// ParquetWriter writes the interval export of each run into a directory.
type ParquetWriter struct {
	dir         string
	compression string
	log         *logger.Log
}

func NewParquetWriter(cfg appconfig.ParquetConfig) *ParquetWriter {
	dir := cfg.Path
	if dir == "" {
		dir = "."
	}
	return &ParquetWriter{dir: dir, compression: cfg.Compression, log: logger.GetLogger()}
}

// FileName is the export file name for a run.
func FileName(s models.Summary) string {
	return fmt.Sprintf("emissions_%s_%s_%s.parquet", s.MeterID, s.PeriodStart, s.PeriodEnd)
}

// Write encodes rows and writes them to the configured directory, returning
// the encoded bytes and the file path.
func (w *ParquetWriter) Write(s models.Summary, rows []models.IntervalEmission) ([]byte, string, error) {
	log := w.log.WithComponent("parquet_writer").WithFields(logger.Fields{
		"run_id":    s.RunID,
		"operation": "write",
	})

	data, err := EncodeParquet(s.RunID, rows, w.compression)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(s))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.WithFields(logger.Fields{
		"path":        path,
		"file_size":   len(data),
		"rows":        len(rows),
		"compression": w.compression,
	}).Info("interval export written")
	return data, path, nil
}
