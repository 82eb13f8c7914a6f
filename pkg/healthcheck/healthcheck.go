// Package healthcheck aggregates dependency checks into the /health, /health/live and
// /health/ready answers.
package healthcheck

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status of one check or of the whole report.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity orders statuses so the report takes the worst one.
func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Check is the outcome of one dependency check.
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"-"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response is the aggregated report. Checks are ordered by name.
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"-"`
}

// Checker checks one dependency.
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck runs the registered checkers and memoizes the report for a short while so
// frequent health requests do not hammer the database.
type HealthCheck struct {
	version  string
	logger   *zap.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	checkers map[string]Checker
	cacheTTL time.Duration
	cache    *Response
}

func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger,
		timeout:  5 * time.Second,
		checkers: make(map[string]Checker),
		cacheTTL: 5 * time.Second,
	}
}

// Register adds or replaces the checker reported under name.
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// SetCacheTTL changes how long a report is reused. Zero disables memoization.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// Handler serves the full report. Unhealthy answers 503; degraded still answers 200.
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
			h.logger.Warn("Health check failed", zap.Any("checks", report.Checks))
		}
		writeJSON(w, code, report)
	}
}

// LivenessHandler answers as long as the process can serve requests.
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	}
}

// ReadinessHandler is ready only if every check is healthy.
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		if report.Status != StatusHealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"checks": report.Checks,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ready",
			"timestamp": report.Timestamp,
		})
	}
}

// Check runs every checker concurrently under a shared timeout, or returns the memoized report.
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if cached := h.cache; cached != nil && time.Since(cached.Timestamp) < h.cacheTTL {
		h.mu.RUnlock()
		return *cached
	}
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	checkers := make([]Checker, len(names))
	sort.Strings(names)
	for i, name := range names {
		checkers[i] = h.checkers[name]
	}
	h.mu.RUnlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make([]Check, len(checkers))
	var wg sync.WaitGroup
	for i := range checkers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			checks[i] = checkers[i].Check(ctx)
			checks[i].Name = names[i]
		}(i)
	}
	wg.Wait()

	report := Response{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: start,
		Checks:    checks,
	}
	for _, c := range checks {
		if c.Status.severity() > report.Status.severity() {
			report.Status = c.Status
		}
	}
	report.TotalDuration = time.Since(start)

	h.mu.Lock()
	h.cache = &report
	h.mu.Unlock()
	return report
}

// DatabaseChecker pings the pool behind gorm and reports its usage.
type DatabaseChecker struct {
	db *sql.DB
	// degradedAt is the share of open connections in use above which the pool is degraded.
	degradedAt float64
}

func NewDatabaseChecker(db *sql.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db, degradedAt: 0.9}
}

func (d *DatabaseChecker) Check(ctx context.Context) Check {
	start := time.Now()
	if err := d.db.PingContext(ctx); err != nil {
		return failed(start, err.Error())
	}

	stats := d.db.Stats()
	check := Check{
		Status:      StatusHealthy,
		LastChecked: start,
		Duration:    time.Since(start),
		Metadata: map[string]interface{}{
			"open_conns": stats.OpenConnections,
			"in_use":     stats.InUse,
			"idle_conns": stats.Idle,
			"max_conns":  stats.MaxOpenConnections,
			"wait_count": stats.WaitCount,
		},
	}
	if limit := stats.MaxOpenConnections; limit > 0 && float64(stats.InUse)/float64(limit) > d.degradedAt {
		check.Status = StatusDegraded
		check.Message = "connection pool nearly exhausted"
	}
	return check
}

// RedisChecker pings the AI response cache.
type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Check(ctx context.Context) Check {
	start := time.Now()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return failed(start, err.Error())
	}

	pool := r.client.PoolStats()
	return Check{
		Status:      StatusHealthy,
		LastChecked: start,
		Duration:    time.Since(start),
		Metadata: map[string]interface{}{
			"total_conns": pool.TotalConns,
			"idle_conns":  pool.IdleConns,
			"timeouts":    pool.Timeouts,
		},
	}
}

// CustomChecker adapts a function to Checker.
type CustomChecker struct {
	check func(ctx context.Context) (Status, string, interface{})
}

func NewCustomChecker(check func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{check: check}
}

func (c *CustomChecker) Check(ctx context.Context) Check {
	start := time.Now()
	status, message, metadata := c.check(ctx)
	return Check{
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

func failed(start time.Time, message string) Check {
	return Check{
		Status:      StatusUnhealthy,
		Message:     message,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

// MarshalJSON reports the duration in milliseconds.
func (c Check) MarshalJSON() ([]byte, error) {
	type plain Check
	return json.Marshal(struct {
		plain
		DurationMS float64 `json:"duration_ms"`
	}{plain(c), float64(c.Duration.Microseconds()) / 1000})
}

// MarshalJSON reports the total duration in milliseconds.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	return json.Marshal(struct {
		plain
		TotalDurationMS float64 `json:"total_duration_ms"`
	}{plain(r), float64(r.TotalDuration.Microseconds()) / 1000})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
