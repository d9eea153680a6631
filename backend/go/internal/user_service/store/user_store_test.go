package store

import (
	"context"
	"testing"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection to ":memory:" would see its own empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewStore(db)
	require.NoError(t, s.Migrate())
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Username: "asha", Email: "asha@example.com", Password: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := s.GetUserByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestStore_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{Username: "a", Email: "a@example.com"}))
	err := s.CreateUser(ctx, &models.User{Username: "b", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_TouchLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := &models.User{Username: "a", Email: "a@example.com"}
	require.NoError(t, s.CreateUser(ctx, u))

	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.TouchLastLogin(ctx, u.ID, at))

	got, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))
}

func TestStore_GetByIDAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := &models.User{Username: "a", Email: "a@example.com", Password: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Empty(t, got.ProfilePic)

	got.ProfilePic = "https://cdn.example/profile_pics/a.png"
	require.NoError(t, s.UpdateUser(ctx, got))

	again, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/profile_pics/a.png", again.ProfilePic)
	assert.Equal(t, "hash", again.Password)

	_, err = s.GetUserByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
