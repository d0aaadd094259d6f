package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/config"
	"go-gin-gorm-auth/internal/core/server"
	"go-gin-gorm-auth/internal/transport/http/handler"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

type AdminDeps struct {
	Config *config.Config
	Users  handler.UserManager
	Health handler.HealthReporter
}

// NewAdminEngine 运维端：/health、/metrics，配置了 api_key 才挂 /admin/v1
func NewAdminEngine(l *zap.Logger, d AdminDeps) *gin.Engine {
	r := server.NewRouter(l, server.Options{})

	r.Use(
		mdw.RequestID(),
		mdw.ProcessTime(),
		mdw.SecurityHeaders(false),
		mdw.Metrics(),
		mdw.AccessLog(l),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
	)

	handler.NewHealthHandler(d.Health).Mount(&r.RouterGroup)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	key := d.Config.App.Admin.APIKey
	if key == "" {
		l.Warn("app.admin.api_key not set, /admin/v1 disabled")
		return r
	}
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AdminKey(key))
	MountAllAdmin(admin, handler.NewAdminHandler(d.Users))
	return r
}
