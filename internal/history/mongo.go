// internal/history/mongo.go
package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// MongoStore keeps history in MongoDB. Snapshots live in one
// collection keyed by category; reports accumulate in another.
type MongoStore struct {
	client    *mongo.Client
	snapshots *mongo.Collection
	reports   *mongo.Collection
}

type snapshotDocument struct {
	Category  string         `bson:"_id"`
	Snapshot  types.Snapshot `bson:"snapshot"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type reportDocument struct {
	Category  string              `bson:"category"`
	Report    *types.ChangeReport `bson:"report"`
	CreatedAt time.Time           `bson:"created_at"`
}

// NewMongoStore connects and resolves the database and collections.
func NewMongoStore(ctx context.Context, cfg config.HistoryConfig) (*MongoStore, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("mongo history requires a connection string")
	}
	database := cfg.Database
	if database == "" {
		database = "brickwatch"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.ConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	prefix := tableName(cfg)
	db := client.Database(database)
	return &MongoStore{
		client:    client,
		snapshots: db.Collection(prefix + "_snapshots"),
		reports:   db.Collection(prefix + "_reports"),
	}, nil
}

func (s *MongoStore) LoadSnapshot(ctx context.Context, category string) (types.Snapshot, error) {
	var doc snapshotDocument
	err := s.snapshots.FindOne(ctx, bson.M{"_id": category}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return types.Snapshot{Category: category}, nil
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return doc.Snapshot, nil
}

func (s *MongoStore) SaveSnapshot(ctx context.Context, snapshot types.Snapshot) error {
	doc := snapshotDocument{
		Category:  snapshot.Category,
		Snapshot:  snapshot,
		UpdatedAt: time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.snapshots.ReplaceOne(ctx, bson.M{"_id": snapshot.Category}, doc, opts); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveReport(ctx context.Context, report *types.ChangeReport) error {
	doc := reportDocument{
		Category:  report.Category,
		Report:    report,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.reports.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
