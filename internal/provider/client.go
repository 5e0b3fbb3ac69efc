package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/internal/config"
)

// chatRequest is the upstream request body.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// chatResponse covers the fields the gateway consumes. A 2xx body missing
// choices[0].message.content is a malformed response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client performs HTTP calls against upstream providers. One Call is exactly
// one HTTP attempt; CallWithRetry adds the bounded intra-provider retry the
// orchestrator counts as a single logical attempt.
type Client struct {
	http       *http.Client
	referer    string
	title      string
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewClient(cfg config.ClientConfig, logger *zap.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConnsPerHost:   8,
	}

	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		referer:    cfg.Referer,
		title:      cfg.Title,
		maxRetries: retries,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}
}

// Call performs exactly one HTTP attempt against the descriptor's endpoint
// and classifies the outcome.
func (c *Client) Call(ctx context.Context, d catalog.Descriptor, p Payload) (string, *Failure) {
	maxTokens := p.MaxTokens
	if maxTokens == 0 || (d.MaxTokens > 0 && maxTokens > d.MaxTokens) {
		maxTokens = d.MaxTokens
	}

	body := chatRequest{
		Model:       d.Model,
		Messages:    p.Messages,
		MaxTokens:   maxTokens,
		Temperature: p.Temperature,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", &Failure{Kind: Unknown, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := strings.TrimRight(d.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", &Failure{Kind: Unknown, Message: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.APIKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &Failure{
			Kind:    classifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &Failure{Kind: MalformedResponse, Status: resp.StatusCode, Message: err.Error()}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &Failure{Kind: MalformedResponse, Status: resp.StatusCode, Message: "missing choices[0].message.content"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// CallWithRetry retries the same provider only for Timeout and Unavailable,
// with linear backoff. All other failure kinds return immediately.
func (c *Client) CallWithRetry(ctx context.Context, d catalog.Descriptor, p Payload) (string, *Failure) {
	var last *Failure
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, failure := c.Call(ctx, d, p)
		if failure == nil {
			return text, nil
		}
		last = failure

		if !failure.Retryable() || attempt == c.maxRetries {
			break
		}

		c.logger.Debug("retrying provider",
			zap.String("provider", d.Key),
			zap.String("kind", string(failure.Kind)),
			zap.Int("attempt", attempt),
		)

		select {
		case <-time.After(time.Duration(attempt) * c.backoff):
		case <-ctx.Done():
			return "", classifyTransport(ctx.Err())
		}
	}
	return "", last
}

// Probe checks reachability of the provider's model listing endpoint.
func (c *Client) Probe(ctx context.Context, d catalog.Descriptor) error {
	url := strings.TrimRight(d.BaseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+d.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe failed with status %d", resp.StatusCode)
	}
	return nil
}

func classifyTransport(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: Timeout, Message: err.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: Timeout, Message: err.Error()}
	}

	return &Failure{Kind: ConnectionError, Message: err.Error()}
}
