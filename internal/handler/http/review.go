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

// ReviewHandler handles HTTP requests for review, helpful vote and
// moderation endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	helpful *service.HelpfulService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, helpful *service.HelpfulService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		helpful: helpful,
		logger:  logger,
	}
}

// --- Handlers ---

// ListParkReviews handles GET /api/v1/parks/{parkId}/reviews
func (h *ReviewHandler) ListParkReviews(w http.ResponseWriter, r *http.Request) {
	parkID := chi.URLParam(r, "parkId")
	h.listReviews(w, r, &parkID)
}

// ListReviews handles GET /api/v1/reviews and GET /api/v1/admin/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	h.listReviews(w, r, optionalQuery(r, "park_id"))
}

func (h *ReviewHandler) listReviews(w http.ResponseWriter, r *http.Request, parkID *string) {
	status, err := statusQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := pagination.FromRequest(r)
	reviews, total, params, err := h.reviews.ListReviews(r.Context(), actorFromRequest(r), service.ReviewQuery{
		ParkID:  parkID,
		UserID:  optionalQuery(r, "user_id"),
		Status:  status,
		Mine:    boolQuery(r, "mine"),
		Sort:    domain.ReviewSort(r.URL.Query().Get("sort")),
		Page:    page.Page,
		PerPage: page.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// CreateReview handles POST /api/v1/parks/{parkId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), actorFromRequest(r), chi.URLParam(r, "parkId"), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// GetReview handles GET /api/v1/reviews/{reviewId}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetReview(r.Context(), actorFromRequest(r), chi.URLParam(r, "reviewId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// UpdateReview handles PUT /api/v1/reviews/{reviewId}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), actorFromRequest(r), chi.URLParam(r, "reviewId"), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.DeleteReview(r.Context(), actorFromRequest(r), chi.URLParam(r, "reviewId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleHelpful handles POST /api/v1/reviews/{reviewId}/helpful
func (h *ReviewHandler) ToggleHelpful(w http.ResponseWriter, r *http.Request) {
	res, err := h.helpful.ToggleHelpful(r.Context(), actorFromRequest(r), chi.URLParam(r, "reviewId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// SetReviewStatus handles PATCH /api/v1/admin/reviews/{reviewId}/status
func (h *ReviewHandler) SetReviewStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := domain.ParseReviewStatus(req.Status)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.reviews.SetReviewStatus(r.Context(), actorFromRequest(r), chi.URLParam(r, "reviewId"), target)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// RecomputeParkRatings handles POST /api/v1/admin/parks/{parkId}/recompute
func (h *ReviewHandler) RecomputeParkRatings(w http.ResponseWriter, r *http.Request) {
	parkID := chi.URLParam(r, "parkId")
	summary, err := h.reviews.RecomputeParkRatings(r.Context(), actorFromRequest(r), parkID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]any{
		"park_id": parkID,
		"ratings": summary,
	})
}
