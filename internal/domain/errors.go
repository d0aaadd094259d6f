package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConstraintViolation 存储层唯一约束冲突
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotAuthenticated 未携带凭证
	ErrNotAuthenticated = errors.New("Not authenticated")
)

type UserNotFoundError struct {
	ID    string
	Email string
}

func (e *UserNotFoundError) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("User with ID %s not found", e.ID)
	case e.Email != "":
		return fmt.Sprintf("User with email %s not found", e.Email)
	}
	return "User not found"
}

type EmailAlreadyExistsError struct {
	Email string
}

func (e *EmailAlreadyExistsError) Error() string {
	return fmt.Sprintf("Email %s is already registered", e.Email)
}

// AuthenticationError 密码不匹配
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return "Incorrect email or password"
	}
	return e.Reason
}

// InvalidTokenError 签名错误、格式错误或已过期
type InvalidTokenError struct {
	Reason string
	Err    error
}

func (e *InvalidTokenError) Error() string {
	if e.Reason == "" {
		return "Could not validate credentials"
	}
	return e.Reason
}

func (e *InvalidTokenError) Unwrap() error { return e.Err }

// ValidationError 入参结构非法，在进入 service 之前产生
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
