package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
	pkgmongo "github.com/wms-platform/scanner-service/pkg/mongodb"
)

// Collection names
const (
	OperationsCollection    = "operations"
	PlannedLinesCollection  = "planned_lines"
	RealizedLinesCollection = "realized_lines"
)

type plannedLineDocument struct {
	OperationID string   `bson:"operationId"`
	ProductID   string   `bson:"productId"`
	ProductName string   `bson:"productName"`
	Expected    float64  `bson:"expectedQty"`
	Done        *float64 `bson:"doneQty,omitempty"`
	Sequence    int64    `bson:"sequence"`
}

type locationDocument struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`
}

type realizedLineDocument struct {
	LineID       string            `bson:"lineId"`
	OperationID  string            `bson:"operationId"`
	ProductID    string            `bson:"productId"`
	ProductName  string            `bson:"productName"`
	Quantity     float64           `bson:"quantity"`
	UoM          string            `bson:"uom"`
	Lot          string            `bson:"lot,omitempty"`
	LocationFrom *locationDocument `bson:"locationFrom,omitempty"`
	LocationTo   *locationDocument `bson:"locationTo,omitempty"`
	Sequence     int64             `bson:"sequence"`
}

func (d plannedLineDocument) toDomain() domain.PlannedLine {
	done := decimal.Zero
	if d.Done != nil {
		done = decimal.NewFromFloat(*d.Done)
	}
	return domain.PlannedLine{
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		Expected:    decimal.NewFromFloat(d.Expected),
		Done:        done,
		Sequence:    d.Sequence,
	}
}

func (l *locationDocument) toDomain() domain.LocationRef {
	if l == nil {
		return domain.LocationRef{}
	}
	return domain.LocationRef{ID: l.ID, Name: l.Name}
}

func (d realizedLineDocument) toDomain() domain.RealizedLine {
	return domain.RealizedLine{
		ID:                  d.LineID,
		ProductID:           d.ProductID,
		ProductName:         d.ProductName,
		Quantity:            decimal.NewFromFloat(d.Quantity),
		UoM:                 d.UoM,
		Lot:                 d.Lot,
		SourceLocation:      d.LocationFrom.toDomain(),
		DestinationLocation: d.LocationTo.toDomain(),
		Sequence:            d.Sequence,
	}
}

// OperationStore reads picking operations and their lines from MongoDB
type OperationStore struct {
	operations *pkgmongo.InstrumentedCollection
	planned    *pkgmongo.InstrumentedCollection
	realized   *pkgmongo.InstrumentedCollection
}

// NewOperationStore creates a new OperationStore and ensures its indexes
func NewOperationStore(ctx context.Context, db *mongo.Database, m *metrics.Metrics, logger *logging.Logger) *OperationStore {
	store := &OperationStore{
		operations: pkgmongo.NewInstrumentedCollection(db.Collection(OperationsCollection), m, logger),
		planned:    pkgmongo.NewInstrumentedCollection(db.Collection(PlannedLinesCollection), m, logger),
		realized:   pkgmongo.NewInstrumentedCollection(db.Collection(RealizedLinesCollection), m, logger),
	}
	store.ensureIndexes(ctx, logger)
	return store
}

func (s *OperationStore) ensureIndexes(ctx context.Context, logger *logging.Logger) {
	byOperation := []mongo.IndexModel{
		{Keys: bson.D{{Key: "operationId", Value: 1}, {Key: "sequence", Value: 1}}},
	}

	indexes := map[*pkgmongo.InstrumentedCollection][]mongo.IndexModel{
		s.operations: {{Keys: bson.D{{Key: "operationId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		s.planned:    byOperation,
		s.realized:   byOperation,
	}
	for collection, models := range indexes {
		if err := collection.EnsureIndexes(ctx, models); err != nil && logger != nil {
			logger.WithError(err).Warn("Failed to create indexes", "collection", collection.Name())
		}
	}
}

// LoadOperation returns the operation or nil when it does not exist
func (s *OperationStore) LoadOperation(ctx context.Context, operationID string) (*domain.OperationContext, error) {
	var op domain.OperationContext
	err := s.operations.FindOne(ctx, bson.M{"operationId": operationID}).Decode(&op)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find operation %s: %w", operationID, err)
	}
	return &op, nil
}

// ListPlannedLines returns the operation's planned lines in sequence order
func (s *OperationStore) ListPlannedLines(ctx context.Context, operationID string) ([]domain.PlannedLine, error) {
	var docs []plannedLineDocument
	if err := s.planned.FindAll(ctx, bson.M{"operationId": operationID}, &docs, sequenceOrder()); err != nil {
		return nil, fmt.Errorf("failed to find planned lines for %s: %w", operationID, err)
	}

	lines := make([]domain.PlannedLine, 0, len(docs))
	for _, doc := range docs {
		lines = append(lines, doc.toDomain())
	}
	return lines, nil
}

// ListRealizedLines returns the operation's realized lines in sequence order
func (s *OperationStore) ListRealizedLines(ctx context.Context, operationID string) ([]domain.RealizedLine, error) {
	var docs []realizedLineDocument
	if err := s.realized.FindAll(ctx, bson.M{"operationId": operationID}, &docs, sequenceOrder()); err != nil {
		return nil, fmt.Errorf("failed to find realized lines for %s: %w", operationID, err)
	}

	lines := make([]domain.RealizedLine, 0, len(docs))
	for _, doc := range docs {
		lines = append(lines, doc.toDomain())
	}
	return lines, nil
}

func sequenceOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}, {Key: "_id", Value: 1}})
}
