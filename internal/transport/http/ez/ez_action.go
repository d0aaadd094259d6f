package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"go-gin-gorm-auth/internal/domain"
	resp "go-gin-gorm-auth/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 带状态码的动作错误，由 resp.FromError 识别
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}
func (e *AErr) Unwrap() error   { return e.Err }
func (e *AErr) StatusCode() int { return e.Code }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Action 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method      string            // GET | POST | PUT | PATCH | DELETE
	Path        string            // 例："/auth/login"、"/users/:id"
	Binder      Binder            // 绑定方式
	Status      int               // 成功状态码，默认 200
	Middlewares []gin.HandlerFunc // 例如鉴权，先于 Handler 执行
	Handler     func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	useJSONFieldNames()
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}

	h := func(c *gin.Context) {
		// 1) 绑定入参（校验失败在进入 service 前返回 400）
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			resp.FromError(c, BindError(bindErr))
			return
		}

		// 2) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			resp.FromError(c, err)
			return
		}
		c.JSON(status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Middlewares...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default: // 默认 POST
		e.g.POST(a.Path, handlers...)
	}
}

var tagNameOnce sync.Once

// 校验错误里使用 json 字段名而不是 Go 字段名
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// BindError 绑定/校验错误 -> *domain.ValidationError；body 超限 -> 413
func BindError(err error) error {
	var (
		ves    validator.ValidationErrors
		syn    *json.SyntaxError
		typ    *json.UnmarshalTypeError
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxErr):
		return &AErr{Code: http.StatusRequestEntityTooLarge, Msg: "request body too large", Err: err}
	case errors.Is(err, io.EOF):
		return &domain.ValidationError{Message: "request body required"}
	case errors.As(err, &ves) && len(ves) > 0:
		fe := ves[0]
		return &domain.ValidationError{Field: fe.Field(), Message: describe(fe)}
	case errors.As(err, &typ):
		return &domain.ValidationError{Field: typ.Field, Message: "invalid type"}
	case errors.As(err, &syn), errors.Is(err, io.ErrUnexpectedEOF):
		return &domain.ValidationError{Message: "invalid JSON body"}
	}
	return &domain.ValidationError{Message: "invalid request"}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "failed on " + fe.Tag()
}
