package logger

import (
	"testing"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	base, hook := test.NewNullLogger()
	parent := FromLogrus(base, "prediction_service", "", "")

	parent.WithError(models.ErrorInfo{Message: "boom"}).WithUser("u1").Error("failed")
	parent.Info("plain")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)

	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "u1", entries[0].Data["user_id"])
	assert.Equal(t, models.ErrorInfo{Message: "boom"}, entries[0].Data["error"])

	assert.Equal(t, "plain", entries[1].Message)
	assert.Equal(t, "", entries[1].Data["user_id"])
	_, hasErr := entries[1].Data["error"]
	assert.False(t, hasErr)
	assert.Equal(t, "prediction_service", entries[1].Data["service_name"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("nonsense"))
}
