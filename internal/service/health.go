package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	CheckPass = "pass"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// Check 单项探测；Critical 失败整体 unhealthy，否则只降级
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

type CheckResult struct {
	Status      string    `json:"status"`
	LatencyMS   float64   `json:"latency_ms"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

type HealthReport struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
}

type HealthService struct {
	version string
	started time.Time
	checks  []Check

	// 超过 Slow 记为 warn；单项最长等待 Timeout
	Slow    time.Duration
	Timeout time.Duration

	sf  singleflight.Group
	now func() time.Time
}

func NewHealthService(version string, checks ...Check) *HealthService {
	return &HealthService{
		version: version,
		started: time.Now(),
		checks:  checks,
		Slow:    time.Second,
		Timeout: 3 * time.Second,
		now:     time.Now,
	}
}

func DBCheck(db *sql.DB) Check {
	return Check{Name: "database", Critical: true, Probe: db.PingContext}
}

func RedisCheck(rdb redis.UniversalClient) Check {
	return Check{Name: "redis", Probe: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// Report 并发探测所有检查项；同一时刻的多个请求合并为一次探测
func (s *HealthService) Report(ctx context.Context) HealthReport {
	v, _, _ := s.sf.Do("health", func() (any, error) {
		return s.run(ctx), nil
	})
	return v.(HealthReport)
}

func (s *HealthService) run(ctx context.Context) HealthReport {
	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(s.checks))
		status  = StatusHealthy
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range s.checks {
		c := c
		g.Go(func() error {
			res := s.probe(gctx, c)
			mu.Lock()
			defer mu.Unlock()
			results[c.Name] = res
			switch {
			case res.Status == CheckFail && c.Critical:
				status = StatusUnhealthy
			case res.Status != CheckPass && status == StatusHealthy:
				status = StatusDegraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return HealthReport{
		Status:        status,
		Version:       s.version,
		UptimeSeconds: s.now().Sub(s.started).Seconds(),
		Checks:        results,
	}
}

func (s *HealthService) probe(ctx context.Context, c Check) CheckResult {
	pctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := s.now()
	err := c.Probe(pctx)
	elapsed := s.now().Sub(start)

	res := CheckResult{
		Status:      CheckPass,
		LatencyMS:   float64(elapsed.Microseconds()) / 1000,
		LastChecked: start.UTC(),
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.Status, res.Message = CheckFail, "timeout"
	case err != nil:
		// 不把底层错误文本暴露给外部
		res.Status, res.Message = CheckFail, c.Name+" unreachable"
	case elapsed > s.Slow:
		res.Status, res.Message = CheckWarn, "slow response"
	}
	return res
}
