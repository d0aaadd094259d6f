package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/domain"
)

// Resp 错误体：统一 {"detail": "..."}
type Resp struct {
	Detail string `json:"detail"`
}

// Error 失败响应（customMsg 为空时用默认文案）
func Error(status int, customMsg string) Resp {
	if customMsg == "" {
		customMsg = Msg(status)
	}
	return Resp{Detail: customMsg}
}

// StatusCoder 自带状态码的错误（如 ez.AErr）
type StatusCoder interface {
	StatusCode() int
}

// Abort 写错误响应并中断；401 附带 WWW-Authenticate
func Abort(c *gin.Context, status int, msg string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, Error(status, msg))
}

// Status 领域错误 -> HTTP 状态码与对外文案
func Status(err error) (int, string) {
	var (
		nf  *domain.UserNotFoundError
		ex  *domain.EmailAlreadyExistsError
		ae  *domain.AuthenticationError
		ite *domain.InvalidTokenError
		ve  *domain.ValidationError
		sc  StatusCoder
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &ex):
		return http.StatusConflict, ex.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, "User not found"
	case errors.As(err, &ae):
		return http.StatusUnauthorized, ae.Error()
	case errors.As(err, &ite):
		return http.StatusUnauthorized, ite.Error()
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, domain.ErrNotAuthenticated.Error()
	case errors.As(err, &sc):
		code := sc.StatusCode()
		if code >= http.StatusInternalServerError {
			return code, Msg(code)
		}
		return code, err.Error()
	}
	return http.StatusInternalServerError, Msg(http.StatusInternalServerError)
}

// FromError 统一错误出口；5xx 的原始错误挂到 c.Errors 交给访问日志
func FromError(c *gin.Context, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	Abort(c, status, msg)
}
