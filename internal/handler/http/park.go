package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/service"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/httputil"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/pagination"
)

// ParkHandler handles HTTP requests for park endpoints.
type ParkHandler struct {
	service *service.ParkService
	logger  *slog.Logger
}

// NewParkHandler creates a new park HTTP handler.
func NewParkHandler(svc *service.ParkService, logger *slog.Logger) *ParkHandler {
	return &ParkHandler{
		service: svc,
		logger:  logger,
	}
}

// ListParks handles GET /api/v1/parks
func (h *ParkHandler) ListParks(w http.ResponseWriter, r *http.Request) {
	minRating, err := floatQuery(r, "min_rating")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := pagination.FromRequest(r)
	parks, total, params, err := h.service.ListParks(r.Context(), service.ParkQuery{
		State:     optionalQuery(r, "state"),
		MinRating: minRating,
		Search:    optionalQuery(r, "q"),
		Sort:      domain.ParkSort(r.URL.Query().Get("sort")),
		Page:      page.Page,
		PerPage:   page.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(parks, total, params))
}

// GetPark handles GET /api/v1/parks/{parkId}
func (h *ParkHandler) GetPark(w http.ResponseWriter, r *http.Request) {
	park, err := h.service.GetPark(r.Context(), chi.URLParam(r, "parkId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, park)
}
