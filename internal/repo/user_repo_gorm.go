package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/pkg/utils"
)

type UserRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db, now: time.Now} }

var _ domain.UserStore = (*UserRepo)(nil)

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) first(ctx context.Context, cond string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Create 生成 id 与时间戳；唯一索引冲突返回 ErrConstraintViolation
func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	row := *u
	if row.ID == "" {
		row.ID = utils.NewID()
	}
	now := stamp(r.now())
	row.CreatedAt, row.UpdatedAt = now, now

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDupKey(err) {
			return nil, fmt.Errorf("create user %s: %w", row.Email, domain.ErrConstraintViolation)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &row, nil
}

// Update 写回 email/full_name/hashed_password，updated_at 严格递增
func (r *UserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	cur, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, &domain.UserNotFoundError{ID: u.ID}
	}
	row := *u
	row.CreatedAt = cur.CreatedAt
	row.UpdatedAt = nextUpdatedAt(cur.UpdatedAt, r.now())

	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":           row.Email,
		"full_name":       row.FullName,
		"hashed_password": row.HashedPassword,
		"updated_at":      row.UpdatedAt,
	})
	if res.Error != nil {
		if isDupKey(res.Error) {
			return nil, fmt.Errorf("update user %s: %w", row.Email, domain.ErrConstraintViolation)
		}
		return nil, fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &domain.UserNotFoundError{ID: u.ID}
	}
	return &row, nil
}

// Delete 硬删除；不存在返回 false
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return false, fmt.Errorf("delete user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) WithinTx(ctx context.Context, fn func(domain.UserStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepo{db: tx, now: r.now})
	})
}

// 各驱动时间精度不同，统一截到毫秒
func stamp(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func nextUpdatedAt(prev, now time.Time) time.Time {
	n := stamp(now)
	if !n.After(prev) {
		n = prev.Add(time.Millisecond)
	}
	return n
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启 TranslateError 的连接按错误文本兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
