package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"casa_subastas/api/apierror"
	"casa_subastas/api/middleware"
	"casa_subastas/api/response"
	"casa_subastas/images"
	"casa_subastas/models"
)

const (
	msgInvalidPropertyID = "ID de propiedad inválido"
	msgPropertyNotFound  = "Propiedad no encontrada"
)

// PropertyDetail is a property as seen by one caller.
type PropertyDetail struct {
	models.Property
	IsSaved     bool                  `json:"isSaved"`
	AerialImage *models.PropertyImage `json:"aerialImage,omitempty"`
}

// ListProperties handles GET /api/properties
func (s *Server) ListProperties(w http.ResponseWriter, r *http.Request) {
	f, apiErr := parseFilters(r.URL.Query())
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	f = f.Normalized()

	props, err := s.store.GetProperties(r.Context(), f)
	if err != nil {
		response.Error(w, err)
		return
	}
	if props == nil {
		props = []models.Property{}
	}
	response.JSONWithMeta(w, http.StatusOK, props, response.Meta{Limit: f.Limit, Offset: f.Offset, Count: len(props)})
}

// parseFilters reads the property filters from a query string. Lists are
// comma separated.
func parseFilters(q url.Values) (models.PropertyFilters, *apierror.Error) {
	var f models.PropertyFilters
	var err error

	f.State = strings.ToUpper(strings.TrimSpace(q.Get("state")))
	f.County = strings.TrimSpace(q.Get("county"))
	f.City = strings.TrimSpace(q.Get("city"))
	f.PropertyTypes = splitList(q.Get("propertyTypes"))
	f.AuctionTypes = splitList(q.Get("auctionTypes"))
	f.SortBy = models.SortField(q.Get("sortBy"))
	f.SortOrder = models.SortOrder(strings.ToLower(q.Get("sortOrder")))

	ints := []struct {
		name string
		dst  *int
	}{
		{"minDiscount", &f.MinDiscount},
		{"bedrooms", &f.Bedrooms},
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			if *p.dst, err = strconv.Atoi(v); err != nil {
				return f, invalidParam(p.name)
			}
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"priceMin", &f.PriceMin},
		{"priceMax", &f.PriceMax},
		{"bathrooms", &f.Bathrooms},
	}
	for _, p := range floats {
		if v := q.Get(p.name); v != "" {
			if *p.dst, err = strconv.ParseFloat(v, 64); err != nil {
				return f, invalidParam(p.name)
			}
		}
	}

	if v := q.Get("propertyId"); v != "" {
		if f.PropertyID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return f, invalidParam("propertyId")
		}
	}
	return f, nil
}

func invalidParam(name string) *apierror.Error {
	return apierror.BadRequest("Parámetro inválido: " + name)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetProperty handles GET /api/properties/{id}
func (s *Server) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest(msgInvalidPropertyID))
		return
	}

	p, err := s.store.GetProperty(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if p == nil {
		response.Error(w, apierror.NotFound(msgPropertyNotFound))
		return
	}

	detail := PropertyDetail{Property: *p}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		if detail.IsSaved, err = s.store.IsPropertySaved(r.Context(), userID, id); err != nil {
			response.Error(w, err)
			return
		}
	}
	if s.images != nil {
		img := s.images.AerialImage(images.FullAddress(p.Address, p.City, p.State))
		detail.AerialImage = &img
	}
	response.OK(w, detail)
}

// Counties handles GET /api/counties/{state}
func (s *Server) Counties(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "state")))
	counties, err := s.store.GetCountiesByState(r.Context(), state)
	if err != nil {
		response.Error(w, err)
		return
	}
	if counties == nil {
		counties = []models.CountyCount{}
	}
	response.OK(w, counties)
}

type favoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

// ToggleFavorite handles POST /api/properties/{id}/favorite
func (s *Server) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest(msgInvalidPropertyID))
		return
	}

	saved, err := s.store.IsPropertySaved(r.Context(), userID, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	if saved {
		if _, err := s.store.UnsaveProperty(r.Context(), userID, id); err != nil {
			response.Error(w, err)
			return
		}
		response.Message(w, http.StatusOK, "Propiedad removida de favoritos", favoriteResponse{IsFavorite: false})
		return
	}

	if ok := s.propertyExists(w, r, id); !ok {
		return
	}
	if _, err := s.store.SaveProperty(r.Context(), userID, id); err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Propiedad agregada a favoritos", favoriteResponse{IsFavorite: true})
}

// SavedProperties handles GET /api/saved-properties
func (s *Server) SavedProperties(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	saved, err := s.store.GetSavedProperties(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if saved == nil {
		saved = []models.SavedProperty{}
	}
	response.OK(w, saved)
}

type saveRequest struct {
	PropertyID int64 `json:"propertyId"`
}

// SaveProperty handles POST /api/saved-properties
func (s *Server) SaveProperty(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PropertyID <= 0 {
		response.Error(w, apierror.BadRequest(msgInvalidPropertyID))
		return
	}
	if ok := s.propertyExists(w, r, req.PropertyID); !ok {
		return
	}

	saved, err := s.store.SaveProperty(r.Context(), userID, req.PropertyID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, saved)
}

// UnsaveProperty handles DELETE /api/saved-properties/{propertyId}
func (s *Server) UnsaveProperty(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "propertyId"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest(msgInvalidPropertyID))
		return
	}

	removed, err := s.store.UnsaveProperty(r.Context(), userID, id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]bool{"removed": removed})
}

// propertyExists writes a 404 and returns false when id is unknown.
func (s *Server) propertyExists(w http.ResponseWriter, r *http.Request, id int64) bool {
	p, err := s.store.GetProperty(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return false
	}
	if p == nil {
		response.Error(w, apierror.NotFound(msgPropertyNotFound))
		return false
	}
	return true
}
