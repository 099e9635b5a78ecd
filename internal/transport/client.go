package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrTimeout is returned when the candidate did not answer within the
// caller-supplied deadline.
var ErrTimeout = errors.New("candidate answer timed out")

// ErrCircuitOpen is returned while the breaker is holding requests back
// after repeated candidate failures.
var ErrCircuitOpen = errors.New("candidate circuit open")

// Config tunes the candidate-agent client.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	AskTimeout     time.Duration `yaml:"ask_timeout"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	Burst          int           `yaml:"burst"`
}

// DefaultConfig returns client settings suitable for a local candidate.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		AskTimeout:     120 * time.Second,
		RequestsPerSec: 4,
		Burst:          2,
	}
}

// Client delivers grading questions to the candidate agent and returns its
// raw textual answer. Requests flow through a token-bucket rate limiter
// and a circuit breaker; the breaker trips on three consecutive failures
// or a >5% failure rate once twenty requests have been seen.
type Client struct {
	config  Config
	hc      *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewClient builds a candidate client from config.
func NewClient(config Config) *Client {
	settings := gobreaker.Settings{Name: "candidate"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}

	return &Client{
		config:  config,
		hc:      &http.Client{Timeout: config.AskTimeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst),
	}
}

// message is the wire envelope carrying one question to the candidate.
type message struct {
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
}

// answer is the candidate's reply envelope. Agents that reply with a bare
// body instead of this shape are tolerated.
type answer struct {
	Text string `json:"text"`
}

// Ask posts one question payload and returns the raw answer text. The
// context bounds the whole exchange; a deadline hit maps to ErrTimeout so
// the caller can mark the case rather than abort the run.
func (c *Client) Ask(ctx context.Context, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.AskTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", mapTimeout(err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", mapTimeout(err)
	}
	return result.(string), nil
}

func (c *Client) post(ctx context.Context, payload []byte) (string, error) {
	msg := message{
		MessageID: uuid.NewString(),
		Role:      "user",
		Text:      string(payload),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("candidate call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}

	log.Debug().
		Str("message_id", msg.MessageID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("candidate answered")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("candidate returned status %d", resp.StatusCode)
	}

	// Prefer the structured answer envelope, fall back to the raw body.
	var a answer
	if err := json.Unmarshal(raw, &a); err == nil && a.Text != "" {
		return a.Text, nil
	}
	return string(raw), nil
}

// BreakerState reports the circuit state for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
