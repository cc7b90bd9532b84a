package carbonintensity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carbonflow/config"
	"carbonflow/models"
	"carbonflow/reader/transport"
)

var (
	from = time.Date(2023, 1, 1, 0, 30, 0, 0, time.UTC)
	to   = time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
)

func newReader(url string) *Reader {
	client := transport.NewClient(config.ReaderConfig{Timeout: time.Second})
	return NewReader(config.CarbonIntensityConfig{URL: url + "/"}, client)
}

func TestFetchIntensity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/intensity/2023-01-01T00:30:00/2023-02-01T00:00:00" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[
			{"from":"2023-01-01T00:00Z","to":"2023-01-01T00:30Z","intensity":{"forecast":190,"actual":200,"index":"moderate"}},
			{"from":"2023-01-01T00:30Z","to":"2023-01-01T01:00Z","intensity":{"forecast":210,"actual":300,"index":"high"}}]}`))
	}))
	defer server.Close()

	records, err := newReader(server.URL).FetchIntensity(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchIntensity: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].ActualValue() != 300 {
		t.Errorf("actual = %v", records[1].ActualValue())
	}
	if !records[0].From.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", records[0].From)
	}
}

func TestFetchIntensityMissingActual(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"from":"2023-01-01T00:00Z","to":"2023-01-01T00:30Z","intensity":{"forecast":190,"actual":null,"index":"moderate"}}]}`))
	}))
	defer server.Close()

	_, err := newReader(server.URL).FetchIntensity(context.Background(), from, to)
	var pe *transport.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T %v", err, err)
	}
	if pe.Source != IntensitySource {
		t.Errorf("source = %q", pe.Source)
	}
}

func TestFetchIntensityNormalizesCarriageReturns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Invalid date\rRange too large"))
	}))
	defer server.Close()

	_, err := newReader(server.URL).FetchIntensity(context.Background(), from, to)
	var se *transport.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T %v", err, err)
	}
	if strings.Contains(se.Body, "\r") || se.Body != "Invalid date\nRange too large" {
		t.Errorf("body = %q", se.Body)
	}
	if !strings.HasPrefix(err.Error(), "got non-200 response while fetching intensity data") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestFetchFuelMix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generation/2023-01-01T00:30Z/2023-02-01T00:00Z" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"from":"2023-01-01T00:00Z","to":"2023-01-01T00:30Z","generationmix":[
			{"fuel":"gas","perc":60},{"fuel":"wind","perc":40}]}]}`))
	}))
	defer server.Close()

	records, err := newReader(server.URL).FetchFuelMix(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchFuelMix: %v", err)
	}
	if len(records) != 1 || len(records[0].GenerationMix) != 2 {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].GenerationMix[1].Fuel != models.FuelWind {
		t.Errorf("fuel = %s", records[0].GenerationMix[1].Fuel)
	}
}

func TestFetchFuelMixRejectsBadPayloads(t *testing.T) {
	tests := map[string]string{
		"unknown fuel":  `{"data":[{"from":"2023-01-01T00:00Z","to":"2023-01-01T00:30Z","generationmix":[{"fuel":"peat","perc":10}]}]}`,
		"perc over 100": `{"data":[{"from":"2023-01-01T00:00Z","to":"2023-01-01T00:30Z","generationmix":[{"fuel":"gas","perc":120}]}]}`,
		"missing data":  `{}`,
		"missing fuel":  `{"data":[{"from":"2023-01-01T00:00Z","to":"2023-01-01T00:30Z","generationmix":[{"perc":50},{"fuel":"gas","perc":50}]}]}`,
		"not an object": `[1,2,3]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newReader(server.URL).FetchFuelMix(context.Background(), from, to)
			var pe *transport.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %T %v", err, err)
			}
		})
	}
}
