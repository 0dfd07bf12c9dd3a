package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/leaflens-gateway/internal/audit"
	"github.com/nerrad567/leaflens-gateway/internal/gateway"
)

// auditPageSize is the number of entries returned by /api/audit.
const auditPageSize = 50

// componentCheckTimeout bounds the optional component checks on /health.
const componentCheckTimeout = 2 * time.Second

// Component states reported on /health.
const (
	componentOK          = "ok"
	componentUnavailable = "unavailable"
)

// HealthResponse is the body of /health. Components lists the optional
// integrations (audit database, MQTT, InfluxDB); the document store is never
// contacted here, and Status stays "OK" whatever the components report.
type HealthResponse struct {
	Status        string            `json:"status"`
	Time          string            `json:"time"`
	Version       string            `json:"version,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Components    map[string]string `json:"components,omitempty"`
}

// CronResponse is the body of /cron.
type CronResponse struct {
	Cron      string   `json:"cron"`
	Databases []string `json:"databases"`
	Time      string   `json:"time"`
}

// handleRoot sends browsers to the dashboard.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.site.DashboardURL == "" {
		s.respond(w, r, http.StatusOK, map[string]string{"service": s.site.Name, "status": "OK"})
		return
	}
	http.Redirect(w, r, s.site.DashboardURL, http.StatusFound)
}

// handleHealth reports liveness. It never touches the document store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, HealthResponse{
		Status:        "OK",
		Time:          time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Components:    s.checkComponents(r.Context()),
	})
}

// checkComponents runs every registered HealthChecker under one shared
// timeout. Failure detail goes to the log, not the response.
func (s *Server) checkComponents(ctx context.Context) map[string]string {
	if len(s.components) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, componentCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.components))
	for name := range s.components {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.components[name].HealthCheck(ctx); err != nil {
			s.logger.Warn("component health check failed", "check", name, "error", err)
			out[name] = componentUnavailable
			continue
		}
		out[name] = componentOK
	}
	return out
}

func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	s.serveResource(w, r, gateway.ResourceSensorData, "")
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	s.serveResource(w, r, gateway.ResourcePlant, chi.URLParam(r, "id"))
}

func (s *Server) handleStoreProducts(w http.ResponseWriter, r *http.Request) {
	s.serveResource(w, r, gateway.ResourceStoreProducts, "")
}

// serveResource resolves, fetches and writes one collection. The store is
// not contacted when resolution fails.
func (s *Server) serveResource(w http.ResponseWriter, r *http.Request, resource gateway.Resource, param string) {
	ref, err := s.gateway.Resolve(resource, param)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidParameter) {
			writeBadRequest(w, msgInvalidPlantID)
			return
		}
		s.logger.Error("resolving resource", "resource", resource, "error", err)
		writeInternalError(w)
		return
	}

	records, err := s.gateway.Fetch(r.Context(), ref)
	if err != nil {
		writeInternalError(w)
		return
	}

	s.respond(w, r, http.StatusOK, records)
}

// handleCron is the keep-alive endpoint polled by an external scheduler.
// Listing databases forces a full round trip to the store.
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	names, err := s.gateway.DatabaseNames(r.Context())
	if err != nil {
		writeInternalError(w)
		return
	}
	s.respond(w, r, http.StatusOK, CronResponse{
		Cron:      "ok",
		Databases: names,
		Time:      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListAudit returns the most recent audit entries, optionally
// filtered by ?action=.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	result, err := s.audit.List(r.Context(), audit.Filter{
		Action: r.URL.Query().Get("action"),
		Limit:  auditPageSize,
	})
	if err != nil {
		s.logger.Error("listing audit logs", "error", err)
		writeInternalError(w)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

// respond writes v as JSON, logging the request if v could not be encoded.
// Stored readings may hold NaN or Inf, which JSON cannot represent.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		s.logger.Error("encoding response",
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
	}
}
