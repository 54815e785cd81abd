package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
	"github.com/wms-platform/scanner-service/pkg/tracing"
)

// InstrumentedCollection wraps a read-mostly MongoDB collection with metrics,
// query logging and tracing
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewInstrumentedCollection wraps collection. m and logger may be nil.
func NewInstrumentedCollection(collection *mongo.Collection, m *metrics.Metrics, logger *logging.Logger) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: collection,
		name:       collection.Name(),
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("mongodb"),
	}
}

// Name returns the collection name
func (c *InstrumentedCollection) Name() string {
	return c.name
}

func (c *InstrumentedCollection) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.name", c.collection.Database().Name()),
			attribute.String("db.operation", operation),
			attribute.String("db.collection", c.name),
		),
	)
}

func (c *InstrumentedCollection) recordMetrics(ctx context.Context, operation string, success bool, duration time.Duration, rows int64) {
	if c.metrics != nil {
		c.metrics.RecordMongoDBOperation(c.name, operation, success, duration)
	}
	if c.logger != nil {
		c.logger.DatabaseQuery(ctx, c.name, operation, duration, success, rows)
	}
}

// FindOne finds a single document. A missing document is not a failure.
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "findOne")

	result := c.collection.FindOne(ctx, filter, opts...)
	err := result.Err()
	notFound := errors.Is(err, mongo.ErrNoDocuments)

	var rows int64
	if err == nil {
		rows = 1
	}
	c.recordMetrics(ctx, "findOne", err == nil || notFound, time.Since(start), rows)

	if notFound {
		err = nil
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	tracing.EndSpan(span, err)
	return result
}

// FindAll runs a query and decodes every matching document into results
func (c *InstrumentedCollection) FindAll(ctx context.Context, filter interface{}, results interface{}, opts ...*options.FindOptions) error {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "find")

	cursor, err := c.collection.Find(ctx, filter, opts...)
	if err == nil {
		// All closes the cursor
		err = cursor.All(ctx, results)
	}

	c.recordMetrics(ctx, "find", err == nil, time.Since(start), 0)
	tracing.EndSpan(span, err)
	return err
}

// EnsureIndexes creates the given indexes
func (c *InstrumentedCollection) EnsureIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "createIndexes")

	_, err := c.collection.Indexes().CreateMany(ctx, indexes)

	c.recordMetrics(ctx, "createIndexes", err == nil, time.Since(start), int64(len(indexes)))
	tracing.EndSpan(span, err)
	return err
}
