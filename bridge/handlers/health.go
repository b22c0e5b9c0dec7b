package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sonr-io/vaultbridge/bridge/tasks"
)

const (
	healthCheckInterval = 10 * time.Second
	healthCheckTimeout  = 5 * time.Second
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name string
	// Critical checks gate readiness.
	Critical bool
	Check    func(ctx context.Context) error
}

// RedisCheck pings the Redis server behind the queue client.
func RedisCheck(queue tasks.Pinger) HealthCheck {
	return HealthCheck{
		Name:     "redis",
		Critical: true,
		Check: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return queue.Ping()
		},
	}
}

// HealthChecker manages health and readiness checks
type HealthChecker struct {
	startTime time.Time
	checks    []HealthCheck

	mu      sync.RWMutex
	ready   bool
	checked bool
	results map[string]string
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(checks ...HealthCheck) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		checks:    checks,
		results:   make(map[string]string),
	}
}

// Run checks dependencies periodically until ctx is done.
func (hc *HealthChecker) Run(ctx context.Context) error {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	hc.CheckDependencies(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			hc.CheckDependencies(ctx)
		}
	}
}

// CheckDependencies runs every check once.
func (hc *HealthChecker) CheckDependencies(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(map[string]string, len(hc.checks))
	ready := true
	for _, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			results[check.Name] = "unhealthy: " + err.Error()
			if check.Critical {
				ready = false
			}
			continue
		}
		results[check.Name] = "healthy"
	}

	hc.mu.Lock()
	hc.results = results
	hc.ready = ready
	hc.checked = true
	hc.mu.Unlock()
}

// IsReady returns whether the service is ready to handle requests
func (hc *HealthChecker) IsReady() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.ready
}

// GetStatus returns the current health status
func (hc *HealthChecker) GetStatus() HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	deps := make(map[string]string, len(hc.results))
	for name, result := range hc.results {
		deps[name] = result
	}

	status := "healthy"
	switch {
	case !hc.checked:
		status = "starting"
	case !hc.ready:
		status = "unhealthy"
	}

	return HealthStatus{
		Status:       status,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Uptime:       time.Since(hc.startTime).String(),
		Dependencies: deps,
	}
}

// HealthCheckHandler returns health status (liveness probe)
func (hc *HealthChecker) HealthCheckHandler(c echo.Context) error {
	status := hc.GetStatus()
	if status.Status == "unhealthy" {
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

// ReadinessHandler returns readiness status (readiness probe)
func (hc *HealthChecker) ReadinessHandler(c echo.Context) error {
	if !hc.IsReady() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
