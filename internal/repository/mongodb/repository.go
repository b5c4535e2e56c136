package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

const snapshotCollection = "inventory_snapshots"

// Repository defines the interface for snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error
	LatestSnapshot(ctx context.Context) (models.InventorySnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return NewMongoDBRepositoryFromClient(client, dbName), nil
}

// NewMongoDBRepositoryFromClient wraps an already connected client.
func NewMongoDBRepositoryFromClient(client *mongo.Client, dbName string) *MongoDBRepository {
	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: snapshotCollection,
	}
}

// SaveSnapshot archives one inventory snapshot.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error {
	if _, err := r.collection().InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert inventory snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent archived snapshot.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context) (models.InventorySnapshot, error) {
	var snapshot models.InventorySnapshot

	opts := options.FindOne().SetSort(bson.D{{Key: "taken_at", Value: -1}})
	err := r.collection().FindOne(ctx, bson.D{}, opts).Decode(&snapshot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.InventorySnapshot{}, fmt.Errorf("latest inventory snapshot: %w", models.ErrNotFound)
		}
		return models.InventorySnapshot{}, fmt.Errorf("failed to load latest inventory snapshot: %w", err)
	}
	return snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}
