package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-auth/internal/core/database"
	"go-gin-gorm-auth/internal/domain"
)

func newSQLiteRepo(t *testing.T) *UserRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewUserRepo(db)
}

// 两种实现跑同一套用例
func stores(t *testing.T) map[string]func(t *testing.T) domain.UserStore {
	return map[string]func(t *testing.T) domain.UserStore{
		"gorm":   func(t *testing.T) domain.UserStore { return newSQLiteRepo(t) },
		"memory": func(t *testing.T) domain.UserStore { return NewMemoryUserRepo() },
	}
}

func newUser(email string) *domain.User {
	return &domain.User{Email: email, HashedPassword: "$2a$04$hash", FullName: "Alice"}
}

func TestUserStore_CreateAndGet(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			u, err := s.Create(ctx, newUser("alice@example.com"))
			require.NoError(t, err)
			assert.NotEmpty(t, u.ID)
			assert.False(t, u.CreatedAt.IsZero())
			assert.True(t, u.CreatedAt.Equal(u.UpdatedAt))

			got, err := s.GetByID(ctx, u.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "alice@example.com", got.Email)
			assert.Equal(t, "$2a$04$hash", got.HashedPassword)

			got, err = s.GetByEmail(ctx, "alice@example.com")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, u.ID, got.ID)

			// 区分大小写
			got, err = s.GetByEmail(ctx, "ALICE@example.com")
			require.NoError(t, err)
			assert.Nil(t, got)

			got, err = s.GetByID(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestUserStore_CreateDuplicateEmail(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			_, err := s.Create(ctx, newUser("alice@example.com"))
			require.NoError(t, err)
			_, err = s.Create(ctx, newUser("alice@example.com"))
			assert.ErrorIs(t, err, domain.ErrConstraintViolation)

			all, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestUserStore_Update(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			u, err := s.Create(ctx, newUser("alice@example.com"))
			require.NoError(t, err)

			u.FullName = "Alice Liddell"
			u.Email = "alice@wonderland.example"
			updated, err := s.Update(ctx, u)
			require.NoError(t, err)
			assert.Equal(t, u.ID, updated.ID)
			assert.True(t, updated.UpdatedAt.After(u.CreatedAt))
			assert.True(t, updated.CreatedAt.Equal(u.CreatedAt))

			got, err := s.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "Alice Liddell", got.FullName)
			assert.Equal(t, "alice@wonderland.example", got.Email)
			assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))

			// 旧邮箱释放
			old, err := s.GetByEmail(ctx, "alice@example.com")
			require.NoError(t, err)
			assert.Nil(t, old)
		})
	}
}

func TestUserStore_UpdateConflictsAndMissing(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			_, err := s.Create(ctx, newUser("alice@example.com"))
			require.NoError(t, err)
			bob, err := s.Create(ctx, newUser("bob@example.com"))
			require.NoError(t, err)

			bob.Email = "alice@example.com"
			_, err = s.Update(ctx, bob)
			assert.ErrorIs(t, err, domain.ErrConstraintViolation)

			_, err = s.Update(ctx, &domain.User{ID: "missing", Email: "x@example.com"})
			var nf *domain.UserNotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, "missing", nf.ID)
		})
	}
}

func TestUserStore_DeleteAndList(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			a, err := s.Create(ctx, newUser("a@example.com"))
			require.NoError(t, err)
			_, err = s.Create(ctx, newUser("b@example.com"))
			require.NoError(t, err)

			all, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)

			ok, err := s.Delete(ctx, a.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.Delete(ctx, a.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			// 删除后邮箱可再次注册
			_, err = s.Create(ctx, newUser("a@example.com"))
			require.NoError(t, err)
		})
	}
}

func TestUserRepo_WithinTxRollsBack(t *testing.T) {
	s := newSQLiteRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx domain.UserStore) error {
		if _, err := tx.Create(ctx, newUser("alice@example.com")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.WithinTx(ctx, func(tx domain.UserStore) error {
		_, err := tx.Create(ctx, newUser("alice@example.com"))
		return err
	})
	require.NoError(t, err)
	got, err = s.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMemoryUserRepo_CanceledContext(t *testing.T) {
	s := NewMemoryUserRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, newUser("alice@example.com"))
	assert.ErrorIs(t, err, context.Canceled)
	err = s.WithinTx(ctx, func(domain.UserStore) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextUpdatedAt(t *testing.T) {
	prev := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, prev.Add(time.Millisecond), nextUpdatedAt(prev, prev))
	assert.Equal(t, prev.Add(time.Millisecond), nextUpdatedAt(prev, prev.Add(-time.Hour)))
	assert.Equal(t, prev.Add(time.Second), nextUpdatedAt(prev, prev.Add(time.Second+time.Microsecond)))
}

func TestIsDupKey(t *testing.T) {
	assert.True(t, isDupKey(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isDupKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)))
	assert.True(t, isDupKey(errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'users.idx_users_email'")))
	assert.False(t, isDupKey(errors.New("connection refused")))
}
