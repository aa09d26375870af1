package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"casa_subastas/api/apierror"
	"casa_subastas/api/response"
	"casa_subastas/auction"
	"casa_subastas/models"
	"casa_subastas/scheduler"
	"casa_subastas/syncer"
)

const msgSyncDisabled = "Sincronización deshabilitada: falta ATTOM_API_KEY"

// TriggerSync handles POST /api/admin/sync/trigger. The sync runs in the
// request and its counters are returned.
func (s *Server) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		response.Error(w, apierror.ServiceUnavailable(msgSyncDisabled))
		return
	}

	var opts syncer.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, apierror.BadRequest("Cuerpo de solicitud inválido"))
		return
	}
	for i, st := range opts.States {
		st = strings.ToUpper(strings.TrimSpace(st))
		if !auction.IsState(st) {
			response.Error(w, apierror.BadRequest("Estado inválido: "+st))
			return
		}
		opts.States[i] = st
	}
	if opts.MaxProperties < 0 {
		response.Error(w, apierror.BadRequest("maxProperties inválido"))
		return
	}

	result, err := s.syncer.RunManual(r.Context(), opts)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		response.Error(w, apierror.Conflict("Ya hay una sincronización en curso"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.Clear(r.Context()); err != nil {
			log.Printf("Cache clear after sync failed: %v", err)
		}
	}
	response.OK(w, result)
}

type SyncStatusResponse struct {
	SyncEnabled bool                  `json:"syncEnabled"`
	Running     bool                  `json:"running"`
	Jobs        []scheduler.JobStatus `json:"jobs"`
	LastRun     *models.SyncLog       `json:"lastRun,omitempty"`
	LatestLog   *models.SyncLog       `json:"latestLog,omitempty"`
}

// SyncStatus handles GET /api/admin/sync/status
func (s *Server) SyncStatus(w http.ResponseWriter, r *http.Request) {
	resp := SyncStatusResponse{
		SyncEnabled: s.syncer != nil,
		Jobs:        []scheduler.JobStatus{},
	}
	if s.syncer != nil {
		resp.Running = s.syncer.Running()
		resp.LastRun = s.syncer.LastRun()
	}
	if s.scheduler != nil {
		resp.Jobs = s.scheduler.Status()
	}

	latest, err := s.store.GetLatestSyncLog(r.Context(), "")
	if err != nil {
		response.Error(w, err)
		return
	}
	resp.LatestLog = latest

	response.OK(w, resp)
}

// EnableJob handles POST /api/admin/jobs/{name}/enable
func (s *Server) EnableJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		response.Error(w, apierror.ServiceUnavailable(msgSyncDisabled))
		return
	}
	name := chi.URLParam(r, "name")
	found, err := s.scheduler.EnableJob(name)
	if !found {
		response.Error(w, apierror.NotFound("Tarea no encontrada"))
		return
	}
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, s.scheduler.Status())
}

// DisableJob handles POST /api/admin/jobs/{name}/disable
func (s *Server) DisableJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		response.Error(w, apierror.ServiceUnavailable(msgSyncDisabled))
		return
	}
	if !s.scheduler.DisableJob(chi.URLParam(r, "name")) {
		response.Error(w, apierror.NotFound("Tarea no encontrada"))
		return
	}
	response.OK(w, s.scheduler.Status())
}
