package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zatekoja/hospitalpowermonitor/internal/api/handlers"
	"github.com/zatekoja/hospitalpowermonitor/internal/api/middleware"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler    *handlers.HealthHandler
	sectorHandler    *handlers.SectorHandler
	dashboardHandler *handlers.DashboardHandler
	sseHandler       *handlers.SSEHandler

	gatherer       prometheus.Gatherer
	metrics        *observability.Metrics
	allowedOrigins []string
}

// NewRouter creates a new router. A nil gatherer leaves /metrics unmounted.
func NewRouter(
	healthHandler *handlers.HealthHandler,
	sectorHandler *handlers.SectorHandler,
	dashboardHandler *handlers.DashboardHandler,
	sseHandler *handlers.SSEHandler,
	gatherer prometheus.Gatherer,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		healthHandler:    healthHandler,
		sectorHandler:    sectorHandler,
		dashboardHandler: dashboardHandler,
		sseHandler:       sseHandler,
		gatherer:         gatherer,
		metrics:          metrics,
		allowedOrigins:   allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Live)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)

	if r.gatherer != nil {
		r.mux.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	// Sector endpoints
	r.mux.HandleFunc("GET /api/sectors", r.sectorHandler.ListSectors)
	r.mux.HandleFunc("POST /api/sectors", r.sectorHandler.CreateSector)
	r.mux.HandleFunc("GET /api/sectors/{id}", r.sectorHandler.GetSector)
	r.mux.HandleFunc("PATCH /api/sectors/{id}", r.sectorHandler.UpdateSector)
	r.mux.HandleFunc("DELETE /api/sectors/{id}", r.sectorHandler.DeleteSector)

	// Outage endpoints
	r.mux.HandleFunc("POST /api/sectors/{id}/outages", r.sectorHandler.AddOutage)
	r.mux.HandleFunc("POST /api/sectors/{id}/outages/{outageId}/end", r.sectorHandler.EndOutage)
	r.mux.HandleFunc("GET /api/outages/board", r.dashboardHandler.GetOutageBoard)
	r.mux.HandleFunc("GET /api/outages/stats", r.dashboardHandler.GetOutageStats)

	r.mux.HandleFunc("DELETE /api/data", r.sectorHandler.ClearData)

	// Dashboard endpoints
	r.mux.HandleFunc("GET /api/dashboard/status", r.dashboardHandler.GetStatus)
	r.mux.HandleFunc("GET /api/dashboard/events", r.dashboardHandler.GetEvents)
	r.mux.HandleFunc("GET /api/impact", r.dashboardHandler.GetImpact)

	// Real-time updates
	r.mux.HandleFunc("GET /api/stream/sectors", r.sseHandler.StreamSectorUpdates)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
