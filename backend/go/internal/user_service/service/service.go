package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/user_service/store"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken 表示邮箱或用户名已被注册。
	ErrEmailTaken = errors.New("该邮箱已被注册")
	// ErrInvalidCredentials 不区分用户不存在与密码错误。
	ErrInvalidCredentials = errors.New("用户不存在或密码错误")
	// ErrAccountSuspended 表示账户已被暂停。
	ErrAccountSuspended = errors.New("账户已被暂停")
	// ErrProfileNotFound 表示 token 中的用户已不存在。
	ErrProfileNotFound = errors.New("用户不存在")
	// ErrPicturesDisabled 表示未配置头像存储。
	ErrPicturesDisabled = errors.New("头像上传未启用")
)

// TokenIssuer 为已验证的用户签发 token。
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// PictureResolver 把头像图片解析为持久化 URL，由 storage.Resolver 实现。
type PictureResolver interface {
	Resolve(ctx context.Context, src storage.ImageSource) (string, error)
}

// Service 封装了注册、登录与个人资料的业务逻辑。
type Service struct {
	store    store.UserStore
	tokens   TokenIssuer
	pictures PictureResolver
	logger   *logger.Logger
	cost     int
	now      func() time.Time
}

// Option 配置 Service 的可选依赖。
type Option func(*Service)

// WithPictureResolver 启用头像上传。
func WithPictureResolver(r PictureResolver) Option {
	return func(s *Service) { s.pictures = r }
}

// NewService 创建一个新的 Service 实例。
func NewService(s store.UserStore, tokens TokenIssuer, log *logger.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		tokens: tokens,
		logger: log,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RegisterUserByEmail 处理新用户通过邮箱注册的逻辑。
func (s *Service) RegisterUserByEmail(ctx context.Context, email, password, username string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// 哈希密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(username),
		Email:    email,
		Status:   models.StatusActive,
		Role:     models.RoleUser,
		Password: string(hashedPassword),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("创建用户失败")
		return nil, err
	}

	s.logger.WithUser(UserID(user)).Info("用户注册成功")
	return user, nil
}

// LoginUserByEmail 校验密码并返回新签发的 JWT。
func (s *Service) LoginUserByEmail(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if user.Status == models.StatusSuspended {
		return "", ErrAccountSuspended
	}

	token, err := s.tokens.Issue(UserID(user))
	if err != nil {
		return "", fmt.Errorf("签发 token 失败: %w", err)
	}

	if err := s.store.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.WithUser(UserID(user)).WithError(models.ErrorInfo{Message: err.Error()}).Warn("更新最后登录时间失败")
	}
	return token, nil
}

// GetProfile 返回 token 中用户 ID 对应的账户。
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	user, err := s.store.GetUserByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfilePic 把头像解析为持久化 URL 并写入账户。
// 已托管的 URL 原样保存；本地文件上传一次。写库失败时已上传的对象不会被删除。
func (s *Service) UpdateProfilePic(ctx context.Context, userID string, src storage.ImageSource) (*models.User, error) {
	if s.pictures == nil {
		return nil, ErrPicturesDisabled
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.pictures.Resolve(ctx, src)
	if err != nil {
		s.logProfileFailure(userID, err, nil)
		return nil, err
	}

	previous := user.ProfilePic
	user.ProfilePic = url
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logProfileFailure(userID, err, map[string]interface{}{"orphaned_image_url": url})
		return nil, fmt.Errorf("保存头像失败: %w", err)
	}

	s.logger.WithUser(userID).
		WithPayload(map[string]interface{}{"previous_profile_pic": previous, "profile_pic": url}).
		Info("头像已更新")
	return user, nil
}

func (s *Service) logProfileFailure(userID string, err error, extra map[string]interface{}) {
	payload := map[string]interface{}{"operation": "update_profile_pic", "owner_id": userID}
	for k, v := range extra {
		payload[k] = v
	}
	s.logger.WithUser(userID).
		WithError(models.ErrorInfo{Message: err.Error()}).
		WithPayload(payload).
		Error("更新头像失败")
}

// UserID 返回写入 token sub 的用户 ID 字符串。
func UserID(u *models.User) string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
