package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStatus 定义了用户账户的生命周期状态。
type UserStatus string

const (
	StatusActive    UserStatus = "active"    // 账号正常
	StatusSuspended UserStatus = "suspended" // 账号被暂停
)

// UserRole 是用户在系统中的角色。
type UserRole string

const (
	RoleUser  UserRole = "user"  // 普通用户
	RoleAdmin UserRole = "admin" // 管理员
)

// User 代表系统中的一个用户账户。
type User struct {
	gorm.Model

	Username    string     `gorm:"unique;not null"`
	Email       string     `gorm:"uniqueIndex;not null"`
	Password    string     `gorm:"size:255" json:"-"` // 存储哈希后的密码，json中忽略
	Status      UserStatus `gorm:"type:varchar(20);default:'active';not null"`
	Role        UserRole   `gorm:"type:varchar(20);default:'user';not null"`
	ProfilePic  string     `gorm:"size:1024"` // 头像的持久化 URL，为空表示未设置
	LastLoginAt *time.Time
}

func (User) TableName() string {
	return "users"
}
