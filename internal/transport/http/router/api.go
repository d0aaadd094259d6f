package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-gorm-auth/internal/core/config"
	"go-gin-gorm-auth/internal/core/server"
	"go-gin-gorm-auth/internal/transport/http/handler"
	mdw "go-gin-gorm-auth/internal/transport/http/middleware"
)

// APIDeps 用户端 engine 的依赖
type APIDeps struct {
	Config   *config.Config
	Limiter  mdw.Limiter // 每客户端限流；nil 关闭
	Resolver mdw.UserResolver
	Auth     handler.Authenticator
	Tokens   handler.TokenDecoder
	Users    handler.UserManager
	Health   handler.HealthReporter
}

func NewAPIEngine(l *zap.Logger, d APIDeps) *gin.Engine {
	app := d.Config.App
	r := server.NewRouter(l, server.Options{Debug: app.Debug, Origins: d.Config.CORS.Origins})

	// 中间件（Recovery/CORS 已在 NewRouter 中）
	r.Use(
		mdw.RequestID(),
		mdw.ProcessTime(),
		mdw.SecurityHeaders(app.Debug),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
	if rl := d.Config.RateLimit; rl.GlobalRPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(rl.GlobalRPS), rl.GlobalBurst))
	}
	if d.Limiter != nil {
		r.Use(mdw.RateLimitPerClient(d.Limiter, l))
	}
	if app.HTTP.MaxConcurrency > 0 {
		r.Use(mdw.ConcurrencyLimit(app.HTTP.MaxConcurrency))
	}
	if app.HTTP.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(app.HTTP.MaxBodyBytes))
	}
	if app.HTTP.RequestTimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(app.HTTP.RequestTimeoutSec) * time.Second))
	}

	// 健康检查：根路径和前缀下各一份
	health := handler.NewHealthHandler(d.Health)
	health.Mount(&r.RouterGroup)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(app.APIPrefix)
	health.Mount(api)
	MountAllAPI(api,
		handler.NewIndexHandler(app.Name, app.Version, d.Resolver),
		handler.NewAuthHandler(d.Auth, d.Tokens),
		handler.NewUserHandler(d.Users, d.Resolver),
	)
	return r
}
