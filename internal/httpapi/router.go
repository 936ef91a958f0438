package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the ops-only chi router: liveness plus aggregate status.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/healthz", app.Health)
	r.Get("/v1/system/status", app.SystemStatus)

	return r
}
