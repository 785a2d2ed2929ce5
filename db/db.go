package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Process-wide connection, created once by Connect and reused by every request.
var (
	connMu        sync.Mutex
	mongoClient   *mongo.Client
	mongoDatabase *mongo.Database
)

var ErrNotConnected = errors.New("database not connected")

// extractDBName parses the database name from the URI, defaulting to "terrainhub"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "terrainhub"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:]
	}
	return "terrainhub"
}

// Connect returns the shared database handle, dialing MongoDB on first use.
// Concurrent callers block until the first connection attempt finishes; a
// failed attempt is not cached so the next call retries.
func Connect(ctx context.Context, uri string) (*mongo.Database, error) {
	connMu.Lock()
	defer connMu.Unlock()

	if mongoDatabase != nil {
		return mongoDatabase, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	slog.Info("connected to MongoDB", "database", dbName)

	mongoClient = client
	mongoDatabase = client.Database(dbName)
	return mongoDatabase, nil
}

// Database returns the shared handle or ErrNotConnected.
func Database() (*mongo.Database, error) {
	connMu.Lock()
	defer connMu.Unlock()
	if mongoDatabase == nil {
		return nil, ErrNotConnected
	}
	return mongoDatabase, nil
}

// GetCollection returns a collection by name, or nil before Connect.
func GetCollection(collectionName string) *mongo.Collection {
	database, err := Database()
	if err != nil {
		return nil
	}
	return database.Collection(collectionName)
}

// Disconnect closes the shared client. A later Connect dials again.
func Disconnect(ctx context.Context) error {
	connMu.Lock()
	defer connMu.Unlock()
	if mongoClient == nil {
		return nil
	}
	err := mongoClient.Disconnect(ctx)
	mongoClient = nil
	mongoDatabase = nil
	return err
}
