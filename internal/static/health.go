package static

import (
	"net/http"
	"time"

	"stripdemo/internal/version"
)

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Root      string    `json:"root"`
	RootReady bool      `json:"rootReady"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !s.rootReady {
		status = "degraded"
	}
	WriteJSON(w, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Root:      s.root,
		RootReady: s.rootReady,
	}, http.StatusOK)
}
