package writer

import (
	"encoding/json"
	"fmt"
	"io"

	"carbonflow/models"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ConsoleWriter renders a Summary as the run report.
type ConsoleWriter struct {
	out    io.Writer
	format string
}

func NewConsoleWriter(out io.Writer, format string) (*ConsoleWriter, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown report format '%s'", format)
	}
	return &ConsoleWriter{out: out, format: format}, nil
}

func (w *ConsoleWriter) Write(s models.Summary) error {
	if w.format == FormatJSON {
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	if _, err := fmt.Fprintf(w.out, "Energy consumed: %s kWh\n", s.TotalEnergyKWh.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.out, "CO2 emitted: %s kg\n", s.TotalCO2Kg.StringFixed(2)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.out, "Fuel mix used:"); err != nil {
		return err
	}
	for _, share := range s.FuelMix {
		if _, err := fmt.Fprintf(w.out, "  %s: %.2f %%\n", share.Fuel, share.Perc); err != nil {
			return err
		}
	}
	return nil
}
