// Package testdb starts throwaway databases for integration tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/scanner-service/pkg/mongodb"
)

// MongoImage is the server version the picking backend runs against
const MongoImage = "mongo:6"

// MongoDB starts a MongoDB container for t and returns a connected handle to
// database. The container and connection are released when t finishes.
func MongoDB(t *testing.T, database string) *mongo.Database {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcmongodb.Run(ctx, MongoImage,
		tcmongodb.WithUsername("test"),
		tcmongodb.WithPassword("test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start mongodb container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	config := mongodb.DefaultConfig()
	config.URI = uri
	config.Database = database
	config.AppName = t.Name()

	client, err := mongodb.NewClient(ctx, config)
	require.NoError(t, err, "connect to mongodb container")
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})

	return client.Database()
}
