package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-gorm-auth/internal/transport/http/response"
)

const KeyAdminAPIKey = "X-Admin-Key"

// AdminKey 管理端共享密钥校验（常量时间比较）
func AdminKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(KeyAdminAPIKey))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			resp.Abort(c, http.StatusForbidden, "invalid admin key")
			return
		}
		c.Next()
	}
}
