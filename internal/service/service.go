package service

import (
	"errors"
	"time"

	"go-gin-gorm-auth/internal/domain"
	"go-gin-gorm-auth/pkg/utils"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

type TokenIssuer interface {
	Issue(subject, email string) (string, time.Time, error)
}

type TokenDecoder interface {
	Decode(token string) (*domain.TokenClaims, error)
}

func hashPassword(h PasswordHasher, plain string) (string, error) {
	hashed, err := h.Hash(plain)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", &domain.ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return hashed, err
}
