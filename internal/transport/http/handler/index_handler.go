package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-auth/internal/domain"
	httpez "go-gin-gorm-auth/internal/transport/http/ez"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

type IndexHandler struct {
	name     string
	version  string
	resolver mdw.UserResolver
}

func NewIndexHandler(name, version string, resolver mdw.UserResolver) *IndexHandler {
	return &IndexHandler{name: name, version: version, resolver: resolver}
}

type indexOut struct {
	Name    string             `json:"name"`
	Version string             `json:"version"`
	User    *domain.UserPublic `json:"user"`
}

// MountAPI GET 分组根路径：带有效 token 时附上当前用户，否则 user 为 null
func (h *IndexHandler) MountAPI(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g), httpez.Action[struct{}, indexOut]{
		Method:      http.MethodGet,
		Path:        "",
		Binder:      httpez.BindNone,
		Middlewares: []gin.HandlerFunc{mdw.OptionalUser(h.resolver)},
		Handler: func(c *gin.Context, _ *struct{}) (indexOut, error) {
			return indexOut{Name: h.name, Version: h.version, User: mdw.CurrentUser(c).Public()}, nil
		},
	})
}
