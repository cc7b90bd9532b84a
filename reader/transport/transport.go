package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"carbonflow/config"
	"carbonflow/logger"
)

var maxBodyBytes int64 = 64 << 20

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// Observer is told about every completed request. status is 0 when no
// response was received.
type Observer func(source string, status int, d time.Duration, err error)

// Client performs the JSON GETs of all readers. One limiter is shared by
// every request issued through the client.
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	log      *logger.Log
	observer Observer
}

// Request describes a single GET.
type Request struct {
	// Source names the dataset in errors, e.g. "consumption data".
	Source  string
	URL     string
	Headers map[string]string
	// NormalizeCR rewrites carriage returns in an error body to newlines.
	NormalizeCR bool
}

func NewClient(cfg config.ReaderConfig) *Client {
	pool := cfg.ConnectionPool
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConns,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
	}

	agent := cfg.UserAgent
	if agent == "" {
		agent = "carbonflow/1.0"
	}

	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		http: &http.Client{
			Transport: userAgentTransport{agent: agent, base: base},
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logger.GetLogger(),
	}
}

// Observe registers fn to be called after each request.
func (c *Client) Observe(fn Observer) {
	c.observer = fn
}

// GetJSON issues req and decodes a 200 response body into out. Any other
// status yields a *StatusError, an undecodable body a *ParseError.
func (c *Client) GetJSON(ctx context.Context, req Request, out interface{}) error {
	start := time.Now()
	status, err := c.getJSON(ctx, req, out)
	if c.observer != nil {
		c.observer(req.Source, status, time.Since(start), err)
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, req Request, out interface{}) (int, error) {
	log := c.log.WithComponent("transport").WithFields(logger.Fields{
		"source":    req.Source,
		"operation": "get_json",
	})

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &StatusError{Source: req.Source, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return 0, &StatusError{Source: req.Source, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, &StatusError{Source: req.Source, Err: err}
	}
	defer resp.Body.Close()
	logger.LogPerformanceEntry(log, "transport", "api_request", time.Since(start), logger.Fields{
		"status": resp.StatusCode,
	})

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return resp.StatusCode, &StatusError{Source: req.Source, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > maxBodyBytes {
		log.WithFields(logger.Fields{"limit_bytes": maxBodyBytes}).Warn("response body too large")
		return resp.StatusCode, &ParseError{Source: req.Source, Err: fmt.Errorf("response body exceeds %d byte limit", maxBodyBytes)}
	}

	if resp.StatusCode != http.StatusOK {
		text := string(body)
		if req.NormalizeCR {
			text = strings.ReplaceAll(text, "\r", "\n")
		}
		log.WithFields(logger.Fields{"status": resp.StatusCode}).Warn("non-200 response")
		return resp.StatusCode, &StatusError{
			Source:     req.Source,
			StatusCode: resp.StatusCode,
			Body:       text,
			Err:        fmt.Errorf("http %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, &ParseError{Source: req.Source, Err: err}
	}
	logger.LogDataFlowEntry(log, req.Source, "memory", len(body), "bytes")
	return resp.StatusCode, nil
}
