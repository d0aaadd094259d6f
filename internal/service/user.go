package service

import (
	"context"
	"errors"
	"fmt"

	"go-gin-gorm-auth/internal/domain"
)

type UserService struct {
	store  domain.UserStore
	hasher PasswordHasher
}

func NewUserService(store domain.UserStore, hasher PasswordHasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

// CreateUser 注册。预检查走快速路径，唯一索引兜底并发竞争，两条路径返回同一错误。
func (s *UserService) CreateUser(ctx context.Context, email, password, fullName string) (*domain.UserPublic, error) {
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if existing != nil {
		return nil, &domain.EmailAlreadyExistsError{Email: email}
	}

	// bcrypt 放在事务外，避免占着连接算哈希
	hashed, err := hashPassword(s.hasher, password)
	if err != nil {
		return nil, err
	}

	var created *domain.User
	err = s.store.WithinTx(ctx, func(tx domain.UserStore) error {
		u, err := tx.Create(ctx, &domain.User{
			Email:          email,
			HashedPassword: hashed,
			FullName:       fullName,
		})
		if errors.Is(err, domain.ErrConstraintViolation) {
			return &domain.EmailAlreadyExistsError{Email: email}
		}
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.Public(), nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.UserPublic, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, &domain.UserNotFoundError{ID: id}
	}
	return u.Public(), nil
}

// UpdateUser 部分更新；只修改 patch 中非 nil 的字段
func (s *UserService) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.UserPublic, error) {
	var newHash string
	if patch.Password != nil {
		h, err := hashPassword(s.hasher, *patch.Password)
		if err != nil {
			return nil, err
		}
		newHash = h
	}

	var updated *domain.User
	err := s.store.WithinTx(ctx, func(tx domain.UserStore) error {
		cur, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return &domain.UserNotFoundError{ID: id}
		}

		if patch.Email != nil && *patch.Email != cur.Email {
			other, err := tx.GetByEmail(ctx, *patch.Email)
			if err != nil {
				return err
			}
			if other != nil && other.ID != cur.ID {
				return &domain.EmailAlreadyExistsError{Email: *patch.Email}
			}
			cur.Email = *patch.Email
		}
		if patch.FullName != nil {
			cur.FullName = *patch.FullName
		}
		if newHash != "" {
			cur.HashedPassword = newHash
		}

		u, err := tx.Update(ctx, cur)
		if errors.Is(err, domain.ErrConstraintViolation) {
			return &domain.EmailAlreadyExistsError{Email: cur.Email}
		}
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Public(), nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.UserPublic, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserPublic, 0, len(users))
	for i := range users {
		out = append(out, *users[i].Public())
	}
	return out, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.store.WithinTx(ctx, func(tx domain.UserStore) error {
		ok, err := tx.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.UserNotFoundError{ID: id}
		}
		return nil
	})
}
