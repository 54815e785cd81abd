package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/resilience"
)

// Config holds the picking backend connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the default backend configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8004",
		Timeout: 10 * time.Second,
	}
}

// Error is a non-2xx answer from the picking backend
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to the picking backend. It resolves scanned barcodes and
// finalizes operations. Calls go through a circuit breaker.
type Client struct {
	config     *Config
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

// NewClient creates a new backend Client
func NewClient(config *Config, breaker *resilience.CircuitBreaker, logger *logging.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: breaker,
		logger:  logger.WithComponent("picking-backend"),
	}
}

// BreakerConfig is the breaker setup for the picking backend. Answers the
// backend gave deliberately (4xx) do not count as failures.
func BreakerConfig() *resilience.CircuitBreakerConfig {
	config := resilience.DefaultCircuitBreakerConfig("picking-backend")
	config.IsSuccessful = func(err error) bool {
		var backendErr *Error
		if errors.As(err, &backendErr) {
			return backendErr.StatusCode < http.StatusInternalServerError
		}
		return err == nil
	}
	return config
}

// doRequest performs an HTTP request through the breaker. Any non-2xx answer
// comes back as *Error.
func (c *Client) doRequest(ctx context.Context, method, url string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	return resilience.Call(ctx, c.breaker, func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
		}
		return respBody, nil
	})
}

func (c *Client) pickingURL(operationID, action string) string {
	return fmt.Sprintf("%s/api/v1/pickings/%s/%s", c.config.BaseURL, url.PathEscape(operationID), action)
}

// ResolveScan asks the backend to interpret barcode within the operation
func (c *Client) ResolveScan(ctx context.Context, operationID, barcode string) (domain.ScanOutcome, error) {
	body, err := c.doRequest(ctx, http.MethodPost, c.pickingURL(operationID, "scan"), map[string]string{"barcode": barcode})
	if err != nil {
		return domain.ScanOutcome{}, err
	}

	outcome, err := DecodeScanOutcome(body)
	if err != nil {
		c.logger.WithError(err).Error("Unexpected scan response", "operationId", operationID)
		return domain.ScanOutcome{}, err
	}
	return outcome, nil
}

// FinalizeOperation validates the operation on the backend. A rejection
// carries the backend's message.
func (c *Client) FinalizeOperation(ctx context.Context, op domain.OperationContext) error {
	if _, err := c.doRequest(ctx, http.MethodPost, c.pickingURL(op.ID, "validate"), nil); err != nil {
		return err
	}

	c.logger.Info("Finalized operation", "operationId", op.ID)
	return nil
}

// errorMessage extracts a human readable message from an error body
func errorMessage(status int, body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"error", "message"} {
			if raw, ok := present(fields, key); ok {
				if msg := decodeMessage(raw).Message; msg != "" {
					return msg
				}
			}
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
