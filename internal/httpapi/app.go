// Package httpapi exposes a minimal operational surface over HTTP: liveness
// and aggregate system status. Submit/GetStatus/etc are not reimplemented
// as HTTP routes here — the orchestrator is consumed as a Go API, not a
// network service.
package httpapi

import (
	"encoding/json"
	"net/http"

	"adgen/internal/orchestrator"
)

// App holds the dependencies HTTP handlers need.
type App struct {
	Orchestrator *orchestrator.Orchestrator
}

// NewApp constructs an App bound to a live Orchestrator.
func NewApp(o *orchestrator.Orchestrator) *App {
	return &App{Orchestrator: o}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Health reports process liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SystemStatus reports scheduler and job-store aggregates.
func (a *App) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := a.Orchestrator.SystemStatus()
	a.json(w, http.StatusOK, map[string]int{
		"activeCount":   status.ActiveCount,
		"maxConcurrent": status.MaxConcurrent,
		"totalJobs":     status.TotalJobs,
	})
}
