package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config describes the picking database the scanner reads from.
// Credentials travel in the URI.
type Config struct {
	URI                    string
	Database               string
	AppName                string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64

	// ReadPreference is a mode name such as "primary" or "secondaryPreferred".
	// Empty means primary.
	ReadPreference string
}

func DefaultConfig() *Config {
	return &Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "picking_db",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		MaxPoolSize:            50,
		MinPoolSize:            5,
	}
}

func (c *Config) clientOptions() (*options.ClientOptions, error) {
	opts := options.Client().
		ApplyURI(c.URI).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize)

	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
	}
	if c.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(c.ServerSelectionTimeout)
	}
	if c.ReadPreference != "" {
		mode, err := readpref.ModeFromString(c.ReadPreference)
		if err != nil {
			return nil, fmt.Errorf("read preference %q: %w", c.ReadPreference, err)
		}
		pref, err := readpref.New(mode)
		if err != nil {
			return nil, fmt.Errorf("read preference %q: %w", c.ReadPreference, err)
		}
		opts.SetReadPreference(pref)
	}

	return opts, opts.Validate()
}

// Client owns the driver connection and the configured database handle
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewClient connects and pings before returning, so a bad URI fails at startup
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	opts, err := config.clientOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb config: %w", err)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	c := &Client{client: client, database: client.Database(config.Database)}
	if err := c.HealthCheck(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return c, nil
}

func (c *Client) Database() *mongo.Database {
	return c.database
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// HealthCheck pings the primary, bounded to five seconds
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}
