package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"gorm.io/gorm"
)

type HealthCheckHandler struct {
	db *gorm.DB
}

func NewHealthCheckHandler(db *gorm.DB) *HealthCheckHandler {
	return &HealthCheckHandler{db: db}
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	IsCore  bool          `json:"is_core"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// HealthCheck reports liveness plus the state of core collaborators.
func (h *HealthCheckHandler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Components: []ComponentStatus{
			h.checkDatabase(ctx),
		},
	}

	if hasCriticalErrors(status.Components) {
		status.Status = "degraded"
		c.JSON(503, status)
		return
	}

	c.JSON(200, status)
}

func (h *HealthCheckHandler) checkDatabase(ctx context.Context) ComponentStatus {
	comp := ComponentStatus{Name: "database", Status: "ok", IsCore: true}

	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	comp.Latency = time.Since(start)

	if err != nil {
		comp.Status = "critical"
		comp.Error = err.Error()
	}
	return comp
}

func hasCriticalErrors(components []ComponentStatus) bool {
	for _, comp := range components {
		if (comp.IsCore && comp.Status != "ok") || comp.Status == "critical" {
			return true
		}
	}
	return false
}
