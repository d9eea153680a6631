package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/auth"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/user_service/store"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUserStore struct {
	byEmail   map[string]*models.User
	nextID    uint
	touched   map[uint]time.Time
	updateErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]*models.User{}, touched: map[uint]time.Time{}}
}

func (m *memUserStore) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return store.ErrDuplicateUser
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUserStore) UpdateUser(_ context.Context, u *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memUserStore) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	m.touched[id] = at
	return nil
}

func newTestService(t *testing.T) (*Service, *memUserStore, *auth.HMACTokens) {
	t.Helper()
	base, _ := test.NewNullLogger()
	st := newMemUserStore()
	tokens := auth.NewHMACTokens("secret", "agripred_user_service", time.Hour)
	svc := NewService(st, tokens, logger.FromLogrus(base, "user_service_test", "", ""))
	svc.cost = bcrypt.MinCost
	return svc, st, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, st, tokens := newTestService(t)
	ctx := context.Background()

	u, err := svc.RegisterUserByEmail(ctx, " Asha@Example.com ", "correct horse", "asha")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.Password)

	tok, err := svc.LoginUserByEmail(ctx, "ASHA@example.com", "correct horse")
	require.NoError(t, err)

	sub, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, UserID(u), sub)
	assert.Contains(t, st.touched, u.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterUserByEmail(ctx, "a@example.com", "password1", "a")
	require.NoError(t, err)
	_, err = svc.RegisterUserByEmail(ctx, "a@example.com", "password2", "b")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_Failures(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.RegisterUserByEmail(ctx, "a@example.com", "password1", "a")
	require.NoError(t, err)

	_, err = svc.LoginUserByEmail(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.LoginUserByEmail(ctx, "ghost@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	st.byEmail["a@example.com"].Status = models.StatusSuspended
	_, err = svc.LoginUserByEmail(ctx, "a@example.com", "password1")
	assert.True(t, errors.Is(err, ErrAccountSuspended))
}

type fakePictures struct {
	calls int
	src   storage.ImageSource
	err   error
}

func (f *fakePictures) Resolve(_ context.Context, src storage.ImageSource) (string, error) {
	f.calls++
	f.src = src
	if f.err != nil {
		return "", f.err
	}
	if src.Kind() == storage.KindAlreadyHosted {
		return src.Value(), nil
	}
	return "https://cdn.example/profile_pics/new.png", nil
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u, err := svc.RegisterUserByEmail(ctx, "a@example.com", "password1", "a")
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, UserID(u))
	require.NoError(t, err)
	assert.Equal(t, "a", got.Username)
	assert.Equal(t, models.RoleUser, got.Role)

	_, err = svc.GetProfile(ctx, "999")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = svc.GetProfile(ctx, "not-a-number")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpdateProfilePic(t *testing.T) {
	svc, st, _ := newTestService(t)
	pics := &fakePictures{}
	WithPictureResolver(pics)(svc)
	ctx := context.Background()
	u, err := svc.RegisterUserByEmail(ctx, "a@example.com", "password1", "a")
	require.NoError(t, err)

	got, err := svc.UpdateProfilePic(ctx, UserID(u), storage.Local("/tmp/staged.png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/profile_pics/new.png", got.ProfilePic)
	assert.Equal(t, "https://cdn.example/profile_pics/new.png", st.byEmail["a@example.com"].ProfilePic)
	assert.Equal(t, storage.KindLocal, pics.src.Kind())

	got, err = svc.UpdateProfilePic(ctx, UserID(u), storage.AlreadyHosted("https://img.example/me.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/me.jpg", got.ProfilePic)
}

func TestUpdateProfilePic_Failures(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	u, err := svc.RegisterUserByEmail(ctx, "a@example.com", "password1", "a")
	require.NoError(t, err)

	_, err = svc.UpdateProfilePic(ctx, UserID(u), storage.Local("/tmp/x.png"))
	assert.ErrorIs(t, err, ErrPicturesDisabled)

	pics := &fakePictures{err: &storage.UploadFailure{Namespace: "profile_pics", Err: errors.New("down")}}
	WithPictureResolver(pics)(svc)
	_, err = svc.UpdateProfilePic(ctx, UserID(u), storage.Local("/tmp/x.png"))
	var uf *storage.UploadFailure
	assert.ErrorAs(t, err, &uf)
	assert.Empty(t, st.byEmail["a@example.com"].ProfilePic)

	_, err = svc.UpdateProfilePic(ctx, "999", storage.Local("/tmp/x.png"))
	assert.ErrorIs(t, err, ErrProfileNotFound)

	pics.err = nil
	st.updateErr = errors.New("db gone")
	_, err = svc.UpdateProfilePic(ctx, UserID(u), storage.Local("/tmp/x.png"))
	assert.ErrorIs(t, err, st.updateErr)
}
