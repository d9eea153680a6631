package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 表示没有匹配的用户。
	ErrUserNotFound = errors.New("用户不存在")
	// ErrDuplicateUser 表示邮箱或用户名已被占用。
	ErrDuplicateUser = errors.New("邮箱或用户名已被注册")
)

// UserStore 定义了用户数据的持久化接口。
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// Store 是基于 GORM 的 UserStore 实现。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate 自动迁移用户表结构。
func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&models.User{})
}

// CreateUser 在数据库中创建一个新用户。
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

// GetUserByEmail 通过邮箱地址查找用户。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// GetUserByID 通过 ID 查找用户。
func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("更新用户失败: %w", err)
	}
	return nil
}

// TouchLastLogin 更新用户的最后登录时间。
func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}
