// Package sendgrid sends plain-text mail through the SendGrid v3 mail send API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public SendGrid API.
const DefaultBaseURL = "https://api.sendgrid.com"

// Config holds SendGrid settings.
type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
}

// Client is a minimal SendGrid mail client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	backoff    time.Duration
}

// New validates the config and creates a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid: api key is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("sendgrid: from address is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(zap.String("client", "sendgrid")),
		backoff:    time.Second,
	}, nil
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// SendMail sends a plain-text message to one recipient.
func (c *Client) SendMail(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("sendgrid: recipient is required")
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return errors.New("sendgrid: subject and body are required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		Subject:          subject,
		Content:          []content{{Type: "text/plain", Value: body}},
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("sendgrid: encode request: %w", err)
	}

	return c.do(ctx, "/v3/mail/send", payload)
}

// HTTPError is a non-2xx answer from SendGrid.
type HTTPError struct {
	StatusCode int
	Message    string
	retryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, path string, payload []byte) error {
	backoff := c.backoff

	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, path, payload)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt >= c.cfg.MaxRetries {
			return err
		}

		wait := jitter(retryAfter(err, backoff, 10*time.Second))
		c.logger.Warn("sendgrid request retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Duration("sleep", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("sendgrid: %w (last error: %w)", ctx.Err(), err)
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, path string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sendgrid: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	he := &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
		he.retryAfter = time.Duration(s) * time.Second
	}
	return he
}

func errorMessage(raw []byte) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		return parsed.Errors[0].Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "<empty body>"
	}
	return msg
}

func isRetryable(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func retryAfter(err error, fallback, ceiling time.Duration) time.Duration {
	var he *HTTPError
	if errors.As(err, &he) && he.retryAfter > 0 {
		fallback = he.retryAfter
	}
	return min(fallback, ceiling)
}

// jitter spreads retries over [d/2, d).
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)))
}
