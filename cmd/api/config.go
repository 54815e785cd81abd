package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wms-platform/scanner-service/internal/application"
	"github.com/wms-platform/scanner-service/internal/infrastructure/backend"
	"github.com/wms-platform/scanner-service/pkg/kafka"
	"github.com/wms-platform/scanner-service/pkg/mongodb"
	"github.com/wms-platform/scanner-service/pkg/temporal"
)

// Finalizer backends
const (
	FinalizerHTTP     = "http"
	FinalizerTemporal = "temporal"
)

// Config holds application configuration
type Config struct {
	ServerAddr   string
	Environment  string
	KafkaEnabled bool
	Finalizer    string
	AllowOrigins []string

	MongoDB  *mongodb.Config
	Kafka    *kafka.Config
	Backend  *backend.Config
	Temporal *temporal.Config

	TracingEnabled bool
	OTLPEndpoint   string

	IdleTimeout       time.Duration
	AutoValidate      bool
	NotificationLimit int
	PublishTimeout    time.Duration
}

func loadConfig() *Config {
	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8012"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		KafkaEnabled: getEnvBool("KAFKA_ENABLED", true),
		Finalizer:    strings.ToLower(getEnv("FINALIZER", FinalizerHTTP)),
		AllowOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		MongoDB: &mongodb.Config{
			URI:                    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:               getEnv("MONGODB_DATABASE", "picking_db"),
			AppName:                serviceName,
			ConnectTimeout:         10 * time.Second,
			ServerSelectionTimeout: 5 * time.Second,
			MaxPoolSize:            50,
			MinPoolSize:            5,
			ReadPreference:         getEnv("MONGODB_READ_PREFERENCE", "primaryPreferred"),
		},
		Kafka: &kafka.Config{
			Brokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
			WriteTimeout: 10 * time.Second,
			Compression:  getEnv("KAFKA_COMPRESSION", ""),
		},
		Backend: &backend.Config{
			BaseURL: getEnv("PICKING_BACKEND_URL", "http://localhost:8004"),
			Timeout: getEnvDuration("PICKING_BACKEND_TIMEOUT", 10*time.Second),
		},
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  serviceName,
		},
		TracingEnabled:    getEnvBool("TRACING_ENABLED", true),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		IdleTimeout:       getEnvDuration("SCANNER_IDLE_TIMEOUT", 100*time.Millisecond),
		AutoValidate:      getEnvBool("SCANNER_AUTO_VALIDATE", false),
		NotificationLimit: getEnvInt("SCANNER_NOTIFICATION_LIMIT", 20),
		PublishTimeout:    getEnvDuration("SCANNER_PUBLISH_TIMEOUT", application.DefaultPublishTimeout),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
