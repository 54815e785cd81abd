package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wms-platform/scanner-service/internal/application"
	"github.com/wms-platform/scanner-service/internal/capture"
	"github.com/wms-platform/scanner-service/pkg/middleware"
)

// APIError is an error answer from the scanner service
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("scanner service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CameraScanResult is the answer to a camera scan
type CameraScanResult struct {
	Outcome *application.OutcomeDTO `json:"outcome"`
	Session application.SessionView `json:"session"`
}

type keyEventBody struct {
	Key    string `json:"key"`
	Target string `json:"target,omitempty"`
}

// Client talks to the scanner service session API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) sessionURL(sessionID string, parts ...string) string {
	path := c.baseURL + "/api/v1/sessions"
	if sessionID != "" {
		path += "/" + url.PathEscape(sessionID)
	}
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach scanner service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp middleware.APIErrorResponse
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StartSession opens a scan session on an operation
func (c *Client) StartSession(ctx context.Context, operationID string) (*application.SessionView, error) {
	var view application.SessionView
	err := c.do(ctx, http.MethodPost, c.sessionURL(""), map[string]string{"operationId": operationID}, &view)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetSession returns the current view of a session
func (c *Client) GetSession(ctx context.Context, sessionID string) (*application.SessionView, error) {
	var view application.SessionView
	if err := c.do(ctx, http.MethodGet, c.sessionURL(sessionID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// SendKeys forwards key events to the session's capture
func (c *Client) SendKeys(ctx context.Context, sessionID string, events []capture.KeyEvent) error {
	body := make([]keyEventBody, 0, len(events))
	for _, e := range events {
		body = append(body, keyEventBody{Key: e.Key, Target: string(e.Target)})
	}
	return c.do(ctx, http.MethodPost, c.sessionURL(sessionID, "keys"), map[string]interface{}{"events": body}, nil)
}

// CameraScan submits a barcode decoded by a camera
func (c *Client) CameraScan(ctx context.Context, sessionID, barcode string) (*CameraScanResult, error) {
	var result CameraScanResult
	err := c.do(ctx, http.MethodPost, c.sessionURL(sessionID, "camera"), map[string]string{"barcode": barcode}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) sessionCommand(ctx context.Context, method, url string) (*application.SessionView, error) {
	var view application.SessionView
	if err := c.do(ctx, method, url, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ToggleScanMode flips the session's scan mode
func (c *Client) ToggleScanMode(ctx context.Context, sessionID string) (*application.SessionView, error) {
	return c.sessionCommand(ctx, http.MethodPost, c.sessionURL(sessionID, "scan-mode", "toggle"))
}

// Reload re-reads the session's operation
func (c *Client) Reload(ctx context.Context, sessionID string) (*application.SessionView, error) {
	return c.sessionCommand(ctx, http.MethodPost, c.sessionURL(sessionID, "reload"))
}

// Validate finalizes the session's operation
func (c *Client) Validate(ctx context.Context, sessionID string) (*application.SessionView, error) {
	return c.sessionCommand(ctx, http.MethodPost, c.sessionURL(sessionID, "validate"))
}

// CloseSession tears the session down
func (c *Client) CloseSession(ctx context.Context, sessionID string) (*application.SessionView, error) {
	return c.sessionCommand(ctx, http.MethodDelete, c.sessionURL(sessionID))
}

// WaitForOutcome polls the session until the outcome of barcode has been
// applied after version, or ctx expires
func (c *Client) WaitForOutcome(ctx context.Context, sessionID, barcode string, after uint64, interval time.Duration) (*application.SessionView, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		view, err := c.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if view.Version > after && view.LastOutcome != nil && view.LastOutcome.Barcode == barcode {
			return view, nil
		}

		select {
		case <-ctx.Done():
			return view, fmt.Errorf("no outcome for %s: %w", barcode, ctx.Err())
		case <-ticker.C:
		}
	}
}

// KeyEventsFor replays a scanned line as the key presses of a keyboard-wedge scanner
func KeyEventsFor(line string) []capture.KeyEvent {
	events := make([]capture.KeyEvent, 0, len(line)+1)
	for _, r := range line {
		events = append(events, capture.KeyEvent{Key: string(r)})
	}
	return append(events, capture.KeyEvent{Key: capture.KeyEnter})
}
