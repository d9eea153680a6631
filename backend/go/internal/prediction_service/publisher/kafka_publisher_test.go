package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestEventPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewEventPublisherWithWriter(w)

	rec := &models.PredictionRecord{ID: "r1", OwnerID: "u1", DiseaseDetected: "Leaf Blight", PlantType: "Tomato",
		ImageURL: "https://cdn.example/x.png", CreatedAt: time.Unix(100, 0).UTC()}
	require.NoError(t, p.Publish(context.Background(), models.NewPredictionCreatedEvent(rec)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "u1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "prediction.created", string(msg.Headers[0].Value))

	var got models.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "r1", got.RecordID)
	assert.Equal(t, "Leaf Blight", got.Disease)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestEventPublisher_WriteError(t *testing.T) {
	p := NewEventPublisherWithWriter(&recordingWriter{err: errors.New("broker down")})
	err := p.Publish(context.Background(), models.PredictionEvent{OwnerID: "u1"})
	assert.ErrorContains(t, err, "broker down")
}
