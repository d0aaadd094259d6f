package service

import (
	"context"
	"fmt"

	"go-gin-gorm-auth/internal/domain"
)

type AuthService struct {
	store  domain.UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(store domain.UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens}
}

// AuthenticateUser 校验邮箱密码，成功返回 sub=用户 id 的访问令牌
func (s *AuthService) AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	if u == nil {
		return "", &domain.UserNotFoundError{Email: email}
	}
	if !s.hasher.Verify(password, u.HashedPassword) {
		return "", &domain.AuthenticationError{}
	}
	tok, _, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}
