package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultPinataEndpoint is Pinata's JSON pinning endpoint.
const DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinJSONToIPFS"

const (
	// maxResponseBody bounds how much of any response is read.
	maxResponseBody = 1 << 20
	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4096
)

// PinataClient pins JSON documents to IPFS through Pinata.
type PinataClient struct {
	endpoint   string
	jwt        string
	pinName    string
	httpClient *http.Client
	timeout    time.Duration
	hasTimeout bool
	logger     *slog.Logger
}

// PinataOption configures a PinataClient.
type PinataOption func(*PinataClient)

// WithEndpoint overrides the pinning endpoint.
func WithEndpoint(endpoint string) PinataOption {
	return func(c *PinataClient) { c.endpoint = endpoint }
}

// WithHTTPClient replaces the HTTP client. The client is copied, so options
// never change the caller's value.
func WithHTTPClient(hc *http.Client) PinataOption {
	return func(c *PinataClient) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) PinataOption {
	return func(c *PinataClient) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithPinName wraps uploads in Pinata's metadata envelope under the given name.
func WithPinName(name string) PinataOption {
	return func(c *PinataClient) { c.pinName = name }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) PinataOption {
	return func(c *PinataClient) { c.logger = l }
}

// NewPinataClient creates a client authenticating with the given JWT.
//
// The JWT must come from protected configuration; it is never logged.
func NewPinataClient(jwt string, opts ...PinataOption) (*PinataClient, error) {
	if strings.TrimSpace(jwt) == "" {
		return nil, errors.New("pinata JWT is required")
	}

	c := &PinataClient{
		endpoint: DefaultPinataEndpoint,
		jwt:      jwt,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		return nil, errors.New("pinata endpoint is required")
	}
	if c.httpClient == nil {
		return nil, errors.New("pinata http client is required")
	}

	hc := *c.httpClient
	if c.hasTimeout {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc
	return c, nil
}

type pinataEnvelope struct {
	Content  any            `json:"pinataContent"`
	Metadata pinataMetadata `json:"pinataMetadata"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Publish uploads record and returns its IPFS content identifier.
// Failures are *PublishError; nothing is retried.
func (c *PinataClient) Publish(ctx context.Context, record any) (string, error) {
	var body any = record
	if c.pinName != "" {
		body = pinataEnvelope{Content: record, Metadata: pinataMetadata{Name: c.pinName}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &PublishError{Err: fmt.Errorf("failed to encode record: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &PublishError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Error uploading to IPFS", "endpoint", c.endpoint, "error", err)
		return "", &PublishError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &PublishError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "Error uploading to IPFS", "endpoint", c.endpoint, "status", resp.StatusCode)
		return "", &PublishError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var out pinResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &PublishError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
			Err:        fmt.Errorf("malformed response: %w", err),
		}
	}
	if out.IpfsHash == "" {
		return "", &PublishError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
			Err:        errors.New("response has no IpfsHash"),
		}
	}

	c.logger.InfoContext(ctx, "record pinned", "cid", out.IpfsHash, "size", out.PinSize)
	return out.IpfsHash, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
