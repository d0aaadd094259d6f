package service

import (
	"context"
	"errors"
	"fmt"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/pkg/utils"
)

// CurrentUserResolver token -> claims -> user
type CurrentUserResolver struct {
	tokens TokenDecoder
	store  domain.UserStore
}

func NewCurrentUserResolver(tokens TokenDecoder, store domain.UserStore) *CurrentUserResolver {
	return &CurrentUserResolver{tokens: tokens, store: store}
}

// Require 严格模式：缺 token、token 无效、用户不存在都返回错误
func (r *CurrentUserResolver) Require(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	claims, err := r.tokens.Decode(token)
	if err != nil {
		return nil, err
	}
	// sub 约定为用户 id
	if !utils.IsID(claims.Subject) {
		return nil, &domain.InvalidTokenError{Reason: "Invalid token payload"}
	}
	u, err := r.store.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	if u == nil {
		return nil, &domain.UserNotFoundError{ID: claims.Subject}
	}
	return u, nil
}

// Optional 可选模式：任何身份层面的失败都视为匿名 (nil, nil)，只透传基础设施错误
func (r *CurrentUserResolver) Optional(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	u, err := r.Require(ctx, token)
	if err == nil {
		return u, nil
	}
	var ite *domain.InvalidTokenError
	var nf *domain.UserNotFoundError
	if errors.As(err, &ite) || errors.As(err, &nf) || errors.Is(err, domain.ErrNotAuthenticated) {
		return nil, nil
	}
	return nil, err
}
