package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	resp "go-gin-gorm-auth/internal/transport/http/response"
)

// RetryAfter 被限流时告诉客户端的等待秒数
const RetryAfter = 60 * time.Second

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		rateLimited.WithLabelValues("global").Inc()
		tooMany(c)
	}
}

// Limiter 按 key（客户端 IP）限流
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitPerClient 每客户端限速；limiter 出错时放行，只记日志
func RateLimitPerClient(lim Limiter, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := lim.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			rateLimited.WithLabelValues("client").Inc()
			tooMany(c)
			return
		}
		c.Next()
	}
}

func tooMany(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(int(RetryAfter.Seconds())))
	resp.Abort(c, http.StatusTooManyRequests, "")
}

// MemoryLimiter 进程内每 key 令牌桶；空闲超过 idle 的桶会被清理
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	idle    time.Duration
	lastGC  time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewMemoryLimiter perMinute 次/分钟，允许一次性突发 perMinute 次
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		idle:    10 * time.Minute,
		lastGC:  time.Now(),
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastGC) > m.idle {
		for k, b := range m.buckets {
			if now.Sub(b.seen) > m.idle {
				delete(m.buckets, k)
			}
		}
		m.lastGC = now
	}
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(m.rps, m.burst)}
		m.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1), nil
}

// RedisLimiter 固定窗口计数，多实例共享配额
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	rate   int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, prefix string, perMinute int) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:fw:"
	}
	return &RedisLimiter{client: client, prefix: prefix, rate: perMinute, window: time.Minute, now: time.Now}
}

func (r *RedisLimiter) key(k string) string {
	return fmt.Sprintf("%s%s:%d", r.prefix, k, r.now().Truncate(r.window).Unix())
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rk := r.key(key)
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, rk)
	pipe.Expire(ctx, rk, r.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= int64(r.rate), nil
}
