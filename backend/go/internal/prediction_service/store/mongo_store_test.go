package store

import (
	"context"
	"testing"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRecordStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert stamps timestamps and seq", func(mt *mtest.T) {
		s := NewMongoRecordStore(mt.DB, "predictions")
		fixed := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
		s.now = func() time.Time { return fixed }

		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		first := &models.PredictionRecord{ID: "r1", OwnerID: "u1", ImageURL: "https://x", DiseaseDetected: "Blight"}
		second := &models.PredictionRecord{ID: "r2", OwnerID: "u1", ImageURL: "https://y", DiseaseDetected: "Rust"}
		require.NoError(mt, s.Insert(context.Background(), first))
		require.NoError(mt, s.Insert(context.Background(), second))

		assert.Equal(mt, fixed.Truncate(time.Millisecond), first.CreatedAt)
		assert.Equal(mt, first.CreatedAt, first.UpdatedAt)
		assert.Greater(mt, second.Seq, first.Seq, "same timestamp must still order by insertion")
		assert.Equal(mt, fixed.UnixNano(), first.Seq, "seq keeps the sub-millisecond clock")
	})

	mt.Run("insert failure", func(mt *mtest.T) {
		s := NewMongoRecordStore(mt.DB, "predictions")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := s.Insert(context.Background(), &models.PredictionRecord{ID: "r1", OwnerID: "u1"})
		require.Error(mt, err)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("list decodes cursor", func(mt *mtest.T) {
		s := NewMongoRecordStore(mt.DB, "predictions")
		newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		older := newer.Add(-time.Hour)
		ns := mt.DB.Name() + "." + "predictions"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "r2"}, {Key: "owner_id", Value: "u1"}, {Key: "image_url", Value: "https://y"},
				{Key: "disease_detected", Value: "Rust"}, {Key: "plant_type", Value: "Corn"}, {Key: "created_at", Value: newer}},
			bson.D{{Key: "_id", Value: "r1"}, {Key: "owner_id", Value: "u1"}, {Key: "image_url", Value: "https://x"},
				{Key: "disease_detected", Value: "Blight"}, {Key: "location", Value: bson.D{{Key: "lat", Value: 1.5}, {Key: "lng", Value: 2.5}}},
				{Key: "created_at", Value: older}},
		))

		got, err := s.ListByOwner(context.Background(), "u1")
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "r2", got[0].ID)
		assert.Equal(mt, "Corn", got[0].PlantType)
		assert.Nil(mt, got[0].Location)
		assert.Equal(mt, &models.GeoPoint{Lat: 1.5, Lng: 2.5}, got[1].Location)
		assert.True(mt, got[0].CreatedAt.Equal(newer))
	})

	mt.Run("list empty is not nil", func(mt *mtest.T) {
		s := NewMongoRecordStore(mt.DB, "predictions")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".predictions", mtest.FirstBatch))

		got, err := s.ListByOwner(context.Background(), "nobody")
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("list failure", func(mt *mtest.T) {
		s := NewMongoRecordStore(mt.DB, "predictions")
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		_, err := s.ListByOwner(context.Background(), "u1")
		assert.Error(mt, err)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		s := NewMongoRecordStore(mt.DB, "predictions")
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, s.EnsureIndexes(context.Background()))
	})
}
