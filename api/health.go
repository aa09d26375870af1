package api

import (
	"net/http"
	"time"

	"casa_subastas/api/response"
	"casa_subastas/images"
)

type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	SyncEnabled   bool      `json:"syncEnabled"`
}

// Health handles GET /api/health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	w.Header().Set("Cache-Control", "no-store")
	response.OK(w, HealthResponse{
		Status:        "healthy",
		Timestamp:     now.UTC(),
		UptimeSeconds: int64(now.Sub(s.startTime).Seconds()),
		SyncEnabled:   s.syncer != nil,
	})
}

// PlaceholderImage handles GET /api/placeholder-property-image
func (s *Server) PlaceholderImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(images.PlaceholderSVG))
}
