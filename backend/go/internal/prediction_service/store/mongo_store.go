package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordStore defines the interface for prediction record persistence.
// Records are append-only: there is no update or delete.
type RecordStore interface {
	// Insert persists rec. The store assigns CreatedAt, UpdatedAt and Seq.
	Insert(ctx context.Context, rec *models.PredictionRecord) error
	// ListByOwner returns the owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.PredictionRecord, error)
}

// MongoRecordStore is an implementation of RecordStore using MongoDB.
type MongoRecordStore struct {
	collection *mongo.Collection
	now        func() time.Time
	lastSeq    atomic.Int64
}

// NewMongoRecordStore creates a new MongoRecordStore.
func NewMongoRecordStore(db *mongo.Database, collectionName string) *MongoRecordStore {
	return &MongoRecordStore{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

// EnsureIndexes creates the compound index backing ListByOwner.
func (s *MongoRecordStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetName("owner_created_desc"),
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Insert inserts a new prediction record into the database.
func (s *MongoRecordStore) Insert(ctx context.Context, rec *models.PredictionRecord) error {
	// BSON datetimes carry millisecond precision; truncate so the returned record equals the stored one.
	clock := s.now().UTC()
	now := clock.Truncate(time.Millisecond)
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Seq = s.nextSeq(clock)

	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert prediction %s: %w", rec.ID, err)
	}
	return nil
}

// ListByOwner retrieves all records for a specific owner.
func (s *MongoRecordStore) ListByOwner(ctx context.Context, ownerID string) ([]models.PredictionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find predictions: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]models.PredictionRecord, 0)
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if records == nil {
		records = []models.PredictionRecord{}
	}
	return records, nil
}

// nextSeq returns an insertion sequence seeded from the full-precision wall clock.
// It is strictly increasing within one process; across replicas it orders by clock,
// so two replicas only tie when their clocks read the same nanosecond.
func (s *MongoRecordStore) nextSeq(now time.Time) int64 {
	candidate := now.UnixNano()
	for {
		last := s.lastSeq.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if s.lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}
