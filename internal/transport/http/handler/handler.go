package handler

import (
	"context"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/internal/service"
)

// 各 handler 依赖的最小接口，便于测试替换

type Authenticator interface {
	AuthenticateUser(ctx context.Context, email, password string) (string, error)
}

type TokenDecoder interface {
	Decode(token string) (*domain.TokenClaims, error)
}

type UserManager interface {
	CreateUser(ctx context.Context, email, password, fullName string) (*domain.UserPublic, error)
	GetUser(ctx context.Context, id string) (*domain.UserPublic, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.UserPublic, error)
	ListUsers(ctx context.Context) ([]domain.UserPublic, error)
	DeleteUser(ctx context.Context, id string) error
}

type HealthReporter interface {
	Report(ctx context.Context) service.HealthReport
}
