// Package health serves liveness, readiness and Prometheus metrics for poold
// on a side listener separate from the public API.
//
// Endpoints:
//   - /health          liveness
//   - /health/ready    readiness (state initialized and readable)
//   - /health/detailed readiness plus invariant checks and pool figures
//   - /metrics         Prometheus exposition
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    int64                      `json:"version"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// PoolState is the part of the application the checker probes.
type PoolState interface {
	Version() int64
	PoolStats(ctx context.Context) (pooltypes.PoolStats, error)
	CheckInvariants(ctx context.Context) error
}

// TelemetryChecker reports whether tracing and metrics are set up.
type TelemetryChecker interface {
	HealthCheck() error
}

// Checker performs health checks against the pool state
type Checker struct {
	logger    log.Logger
	state     PoolState
	telemetry TelemetryChecker

	mu            sync.RWMutex
	lastCheck     time.Time
	cachedHealth  *HealthCheck
	cacheDuration time.Duration
}

// NewChecker creates a new health checker. telemetry may be nil.
func NewChecker(logger log.Logger, state PoolState, telemetry TelemetryChecker, cacheDuration time.Duration) (*Checker, error) {
	if state == nil {
		return nil, fmt.Errorf("pool state is required")
	}
	return &Checker{
		logger:        logger,
		state:         state,
		telemetry:     telemetry,
		cacheDuration: cacheDuration,
	}, nil
}

// Check performs a health check. Non-detailed results are cached for the
// configured duration.
func (c *Checker) Check(ctx context.Context, detailed bool) *HealthCheck {
	if !detailed {
		c.mu.RLock()
		if c.cachedHealth != nil && time.Since(c.lastCheck) < c.cacheDuration {
			cached := c.cachedHealth
			c.mu.RUnlock()
			return cached
		}
		c.mu.RUnlock()
	}

	health := &HealthCheck{
		Timestamp:  time.Now(),
		Version:    c.state.Version(),
		Components: make(map[string]ComponentHealth),
	}

	health.Components["store"] = c.checkStore(ctx)
	if c.telemetry != nil {
		health.Components["telemetry"] = c.checkTelemetry()
	}
	if detailed {
		health.Components["invariants"] = c.checkInvariants(ctx)
	}
	health.Status = calculateOverallStatus(health.Components)

	if !detailed {
		c.mu.Lock()
		c.lastCheck = time.Now()
		c.cachedHealth = health
		c.mu.Unlock()
	}
	return health
}

func (c *Checker) checkStore(ctx context.Context) ComponentHealth {
	start := time.Now()
	stats, err := c.state.PoolStats(ctx)
	if err != nil {
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   fmt.Sprintf("state unreadable: %v", err),
			Timestamp: time.Now(),
		}
	}

	status := StatusHealthy
	message := "state readable"
	if stats.Paused {
		status = StatusDegraded
		message = "pool paused"
	}
	return ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Metrics: map[string]interface{}{
			"total_workers":  stats.TotalWorkers,
			"active_workers": stats.ActiveWorkers,
			"total_staked":   stats.TotalStaked.String(),
			"price":          stats.Price.String(),
			"query_time_ms":  time.Since(start).Milliseconds(),
		},
	}
}

func (c *Checker) checkTelemetry() ComponentHealth {
	if err := c.telemetry.HealthCheck(); err != nil {
		return ComponentHealth{
			Status:    StatusDegraded,
			Message:   err.Error(),
			Timestamp: time.Now(),
		}
	}
	return ComponentHealth{Status: StatusHealthy, Timestamp: time.Now()}
}

func (c *Checker) checkInvariants(ctx context.Context) ComponentHealth {
	if err := c.state.CheckInvariants(ctx); err != nil {
		c.logger.Error("invariant check failed", "error", err)
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   err.Error(),
			Timestamp: time.Now(),
		}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "all invariants hold", Timestamp: time.Now()}
}

// calculateOverallStatus determines the overall health status based on component statuses
func calculateOverallStatus(components map[string]ComponentHealth) Status {
	hasDegraded := false
	for _, component := range components {
		switch component.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// RegisterRoutes registers health check endpoints and /metrics.
func (c *Checker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", c.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", c.handleHealthReady).Methods(http.MethodGet)
	router.HandleFunc("/health/detailed", c.handleHealthDetailed).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler returns the side server's full handler chain.
func (c *Checker) Handler() http.Handler {
	router := mux.NewRouter()
	c.RegisterRoutes(router)
	return handlers.RecoveryHandler()(handlers.CompressHandler(router))
}

// NewServer builds the side server on addr. Access logs go to stderr in
// combined log format.
func (c *Checker) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handlers.CombinedLoggingHandler(os.Stderr, c.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (c *Checker) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (c *Checker) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	health := c.Check(r.Context(), false)

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}

func (c *Checker) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	health := c.Check(r.Context(), true)

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
