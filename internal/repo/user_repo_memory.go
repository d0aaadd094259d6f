package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/pkg/utils"
)

// MemoryUserRepo 进程内实现，用于测试和无数据库的本地调试。
// WithinTx 不提供隔离，只保证单次写入的原子性。
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

var _ domain.UserStore = (*MemoryUserRepo)(nil)

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[email]; ok {
		cp := *r.byID[id]
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, fmt.Errorf("create user %s: %w", u.Email, domain.ErrConstraintViolation)
	}
	row := *u
	if row.ID == "" {
		row.ID = utils.NewID()
	}
	if _, ok := r.byID[row.ID]; ok {
		return nil, fmt.Errorf("create user id %s: %w", row.ID, domain.ErrConstraintViolation)
	}
	now := stamp(r.now())
	row.CreatedAt, row.UpdatedAt = now, now
	r.byID[row.ID] = &row
	r.byEmail[row.Email] = row.ID
	out := row
	return &out, nil
}

func (r *MemoryUserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok {
		return nil, &domain.UserNotFoundError{ID: u.ID}
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return nil, fmt.Errorf("update user %s: %w", u.Email, domain.ErrConstraintViolation)
	}
	row := *u
	row.CreatedAt = cur.CreatedAt
	row.UpdatedAt = nextUpdatedAt(cur.UpdatedAt, r.now())
	if cur.Email != row.Email {
		delete(r.byEmail, cur.Email)
		r.byEmail[row.Email] = row.ID
	}
	r.byID[row.ID] = &row
	out := row
	return &out, nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return true, nil
}

func (r *MemoryUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, *u)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryUserRepo) WithinTx(ctx context.Context, fn func(domain.UserStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(r)
}
