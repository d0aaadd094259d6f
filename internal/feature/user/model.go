package user

import "go-gin-gorm-auth/internal/domain"

// CreateRequest POST /users
type CreateRequest struct {
	Email    string `json:"email"     binding:"required,email,max=255"`
	FullName string `json:"full_name" binding:"required,min=1,max=100"`
	Password string `json:"password"  binding:"required,min=8,max=72"`
}

// UpdateRequest PATCH /users/me：字段都可选；出现的字段（含空串）按同样规则校验
type UpdateRequest struct {
	Email    *string `json:"email"     binding:"omitnil,email,max=255"`
	FullName *string `json:"full_name" binding:"omitnil,min=1,max=100"`
	Password *string `json:"password"  binding:"omitnil,min=8,max=72"`
}

func (r UpdateRequest) Patch() domain.UserPatch {
	return domain.UserPatch{Email: r.Email, FullName: r.FullName, Password: r.Password}
}

type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

const TokenTypeBearer = "bearer"

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NewTokenResponse(token string) TokenResponse {
	return TokenResponse{AccessToken: token, TokenType: TokenTypeBearer}
}

type ListResponse struct {
	Total int                 `json:"total"`
	Items []domain.UserPublic `json:"items"`
}
