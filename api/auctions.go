package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"casa_subastas/api/apierror"
	"casa_subastas/api/response"
	"casa_subastas/auction"
	"casa_subastas/cache"
	"casa_subastas/models"
)

// AuctionEvents handles GET /api/auction-events?state&year&month
func (s *Server) AuctionEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := s.now()
	year, month := now.Year(), int(now.Month())

	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.Error(w, apierror.BadRequest("Año inválido"))
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.Error(w, apierror.BadRequest("Mes inválido"))
			return
		}
		month = n
	}

	events, err := s.events.Generate(strings.ToUpper(strings.TrimSpace(q.Get("state"))), year, month)
	if errors.Is(err, auction.ErrInvalidMonth) {
		response.Error(w, apierror.BadRequest("Mes inválido"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, events)
}

// AuctionProperties handles GET /api/auction/{eventId}/properties?state&date
func (s *Server) AuctionProperties(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventId"))
	if err != nil {
		response.Error(w, apierror.BadRequest("ID de evento inválido"))
		return
	}
	state := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("state")))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	pool, err := s.candidatePool(r.Context(), state)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, auction.Enrich(eventID, date, pool))
}

// candidatePool returns the best discounted properties of state, or of every
// state when state has none. Pools are cached; enrichment is not.
func (s *Server) candidatePool(ctx context.Context, state string) ([]models.Property, error) {
	return cache.GetOrSetJSON(ctx, s.cache, "auction-pool:"+state, s.cacheTTL, func() ([]models.Property, error) {
		props, err := s.store.GetProperties(ctx, models.CandidatePool(state))
		if err != nil {
			return nil, err
		}
		if len(props) == 0 && state != "" {
			return s.store.GetProperties(ctx, models.CandidatePool(""))
		}
		return props, nil
	})
}
