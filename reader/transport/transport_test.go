package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carbonflow/config"
)

type payload struct {
	Data []int `json:"data"`
}

func newTestClient() *Client {
	return NewClient(config.ReaderConfig{
		Timeout:   2 * time.Second,
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10},
		UserAgent: "carbonflow-test",
	})
}

func TestGetJSONDecodesAndSetsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "carbonflow-test" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{"data":[1,2,3]}`))
	}))
	defer server.Close()

	var out payload
	err := newTestClient().GetJSON(context.Background(), Request{
		Source:  "test data",
		URL:     server.URL,
		Headers: map[string]string{"x-api-key": "secret"},
	}, &out)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(out.Data) != 3 {
		t.Fatalf("data = %v", out.Data)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key\r\ntry again"))
	}))
	defer server.Close()

	cases := []struct {
		normalize bool
		wantBody  string
	}{
		{false, "bad key\r\ntry again"},
		{true, "bad key\n\ntry again"},
	}
	for _, c := range cases {
		var out payload
		err := newTestClient().GetJSON(context.Background(), Request{Source: "test data", URL: server.URL, NormalizeCR: c.normalize}, &out)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %T %v", err, err)
		}
		if se.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d", se.StatusCode)
		}
		if se.Body != c.wantBody {
			t.Errorf("body = %q, want %q", se.Body, c.wantBody)
		}
		if !strings.Contains(se.Error(), "got non-200 response while fetching test data") {
			t.Errorf("message = %q", se.Error())
		}
	}
}

func TestGetJSONParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	var out payload
	err := newTestClient().GetJSON(context.Background(), Request{Source: "test data", URL: server.URL}, &out)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T %v", err, err)
	}
	if !strings.HasPrefix(pe.Error(), "failed to parse test data") {
		t.Errorf("message = %q", pe.Error())
	}
}

func TestGetJSONNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var out payload
	err := newTestClient().GetJSON(context.Background(), Request{Source: "test data", URL: url}, &out)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T %v", err, err)
	}
	if se.StatusCode != 0 || se.Err == nil {
		t.Errorf("unexpected error fields: %+v", se)
	}
}

func TestGetJSONCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out payload
	err := newTestClient().GetJSON(ctx, Request{Source: "test data", URL: "http://127.0.0.1:1"}, &out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGetJSONNotifiesObserver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var gotSource string
	var gotStatus int
	var gotErr error
	client := newTestClient()
	client.Observe(func(source string, status int, d time.Duration, err error) {
		gotSource, gotStatus, gotErr = source, status, err
	})

	var out payload
	err := client.GetJSON(context.Background(), Request{Source: "test data", URL: server.URL}, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if gotSource != "test data" || gotStatus != http.StatusForbidden || gotErr != err {
		t.Errorf("observer got %q %d %v", gotSource, gotStatus, gotErr)
	}
}

func TestGetJSONRejectsOversizedBody(t *testing.T) {
	defer func(limit int64) { maxBodyBytes = limit }(maxBodyBytes)
	maxBodyBytes = 16

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"at limit", `{"data":[1,2,3]}`, false},
		{"over limit", `{"data":[1,2,3,4]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var out payload
			err := newTestClient().GetJSON(context.Background(), Request{Source: "test data", URL: server.URL}, &out)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("GetJSON: %v", err)
				}
				if len(out.Data) != 3 {
					t.Errorf("data = %v", out.Data)
				}
				return
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if !strings.Contains(err.Error(), "exceeds 16 byte limit") {
				t.Errorf("err = %q", err.Error())
			}
		})
	}
}
