package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/transcribe-worker/component"
)

// logSummary logs what the service started with: components and their
// health, then routes.
func (a *App[C]) logSummary(ctx context.Context, took time.Duration) {
	a.Logger.Info("Service started", map[string]interface{}{
		"name":          a.Name,
		"version":       a.Version,
		"startup_ms":    took.Milliseconds(),
		"components":    len(a.Components.All()),
		"health_status": a.overallHealth(ctx),
	})

	for _, c := range a.Components.All() {
		rp, ok := c.(component.RouteProvider)
		if !ok {
			continue
		}
		for _, r := range rp.Routes() {
			a.Logger.Debug("Route", map[string]interface{}{
				"method":  r.Method,
				"path":    r.Path,
				"handler": r.Handler,
			})
		}
	}
}

func (a *App[C]) overallHealth(ctx context.Context) component.HealthStatus {
	status := component.StatusHealthy
	for _, h := range a.Components.HealthAll(ctx) {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}
