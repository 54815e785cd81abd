package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "scanner-service",
	}
}

// Signals understood by the picking workflow
var Signals = struct {
	PickingComplete string
}{
	PickingComplete: "pickingComplete",
}

// Client is the narrow slice of the Temporal SDK the scanner needs: signalling
// running workflows and checking the frontend is up.
type Client struct {
	sdk client.Client
}

// NewClient dials the frontend. SDK logs go through logger; nil keeps the SDK default.
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	opts := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}
	if logger != nil {
		opts.Logger = log.NewStructuredLogger(logger.With("component", "temporal-sdk"))
	}

	c, err := client.DialContext(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s/%s: %w", config.HostPort, config.Namespace, err)
	}
	return &Client{sdk: c}, nil
}

// Wrap adapts an existing SDK client, such as a mock
func Wrap(c client.Client) *Client {
	return &Client{sdk: c}
}

func (c *Client) Close() {
	c.sdk.Close()
}

// SignalWorkflow signals the current run of workflowID
func (c *Client) SignalWorkflow(ctx context.Context, workflowID, signalName string, arg any) error {
	if err := c.sdk.SignalWorkflow(ctx, workflowID, "", signalName, arg); err != nil {
		return fmt.Errorf("signal %s to workflow %s: %w", signalName, workflowID, err)
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.sdk.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return fmt.Errorf("temporal health check: %w", err)
	}
	return nil
}
