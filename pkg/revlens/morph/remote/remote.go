// Package remote talks to a morphological analyzer running as an HTTP sidecar.
//
// The sidecar accepts POST {"text": "..."} and answers
// {"tokens": [{"form": "배송", "tag": "NNG"}, ...]}. Calls are rate limited
// and guarded by a circuit breaker so a dead sidecar fails fast.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/morph"
)

// Config configures the client.
type Config struct {
	URL           string
	Timeout       time.Duration // per request, default 5s
	RatePerSecond float64       // 0 disables limiting
	Burst         int           // default 1
	HTTPClient    *http.Client
}

// Client implements morph.Analyzer over HTTP.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]morph.Token]
	name    string
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Tokens []morph.Token `json:"tokens"`
}

// New creates a client. The breaker opens once at least 10 requests in a
// minute have failed 60% of the time and retries after 30 seconds.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("analyzer url required: %w", internalerr.ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	name := "morph-remote"
	metrics.AnalyzerBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]morph.Token](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("analyzer circuit breaker state change")
			metrics.AnalyzerBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Client{
		url:     cfg.URL,
		http:    hc,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cb:      cb,
		name:    name,
	}, nil
}

// Tokenize implements morph.Analyzer. Failures wrap ErrAnalyzerUnavailable.
func (c *Client) Tokenize(ctx context.Context, text string) ([]morph.Token, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("analyzer rate limit: %w", err)
	}

	tokens, err := c.cb.Execute(func() ([]morph.Token, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.AnalyzerRequests.WithLabelValues(c.name, result).Inc()
		return nil, fmt.Errorf("analyze text: %w: %w", internalerr.ErrAnalyzerUnavailable, err)
	}
	metrics.AnalyzerRequests.WithLabelValues(c.name, "success").Inc()
	return tokens, nil
}

func (c *Client) call(ctx context.Context, text string) ([]morph.Token, error) {
	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode analyzer response: %w", err)
	}
	return out.Tokens, nil
}

// State returns the breaker state, for health reporting.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
