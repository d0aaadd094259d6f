package utils

import "github.com/google/uuid"

func NewID() string { return uuid.NewString() }

// IsID 是否为合法的 uuid 字符串
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
