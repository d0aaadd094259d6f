package domain

import (
	"context"
	"time"
)

// User 持久化实体（users 表）
type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HashedPassword string    `gorm:"size:100;not null" json:"-"` // 永不出现在任何响应里
	FullName       string    `gorm:"size:100;not null" json:"full_name"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserPublic 对外投影：不含密码哈希
type UserPublic struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Public() *UserPublic {
	if u == nil {
		return nil
	}
	return &UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// TokenClaims 令牌解码后的声明，不落库
type TokenClaims struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"exp"`
}

// UserPatch 部分更新：nil 表示不改
type UserPatch struct {
	Email    *string
	FullName *string
	Password *string
}

// UserStore 用户仓储抽象。Get* 查不到时返回 (nil, nil)。
type UserStore interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create 邮箱冲突返回包裹 ErrConstraintViolation 的错误
	Create(ctx context.Context, u *User) (*User, error)
	// Update 持久化全部可变字段并刷新 UpdatedAt
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]User, error)
	// WithinTx 在同一事务内执行 fn；fn 返回错误则整体回滚
	WithinTx(ctx context.Context, fn func(UserStore) error) error
}
