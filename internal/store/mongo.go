package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"andesgo/intake/internal/db"
	"andesgo/intake/internal/models"
)

const recordsCollection = "request_records"

// MongoStore persists records in the request_records collection keyed by id.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates the store and ensures the created_at index exists.
func NewMongoStore(ctx context.Context, database *mongo.Database) (*MongoStore, error) {
	collection := database.Collection(recordsCollection)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index on %s: %w", recordsCollection, err)
	}
	return &MongoStore{collection: collection}, nil
}

func (s *MongoStore) Append(ctx context.Context, record *models.RequestRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert record %s: %w", record.ID, err)
	}
	return nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.RequestRecord, error) {
	var record models.RequestRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record %s: %w", id, err)
	}
	return &record, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]*models.RequestRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*models.RequestRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}
