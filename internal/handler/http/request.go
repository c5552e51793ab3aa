package http

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/httputil"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/middleware"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/validator"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// --- Request DTOs ---

// ReviewRequest is the JSON request body for creating or editing a review.
// Ratings are kept raw so that any non-integer value reports INVALID_RATING
// rather than a decode failure. Ranges and the body are checked by the
// domain.
type ReviewRequest struct {
	OverallRating       json.RawMessage `json:"overall_rating"`
	TerrainRating       json.RawMessage `json:"terrain_rating"`
	FacilitiesRating    json.RawMessage `json:"facilities_rating"`
	DifficultyRating    json.RawMessage `json:"difficulty_rating"`
	Title               *string         `json:"title" validate:"omitempty,max=200"`
	Body                string          `json:"body" validate:"max=10000"`
	VisitDate           *string         `json:"visit_date" validate:"omitempty,datetime=2006-01-02"`
	VehicleType         *string         `json:"vehicle_type" validate:"omitempty,max=100"`
	VisitCondition      *string         `json:"visit_condition" validate:"omitempty,max=100"`
	RecommendedDuration *string         `json:"recommended_duration" validate:"omitempty,oneof=FEW_HOURS HALF_DAY FULL_DAY OVERNIGHT MULTI_DAY"`
	RecommendedFor      *string         `json:"recommended_for" validate:"omitempty,max=200"`
}

// parseRating accepts a JSON number with no fractional part. A missing or
// null rating yields zero, which the domain rejects as out of range.
func parseRating(field string, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, domain.InvalidRatingValue(field, string(raw))
	}
	return int(f), nil
}

func (req ReviewRequest) toInput() (domain.ReviewInput, error) {
	in := domain.ReviewInput{
		Title:          req.Title,
		Body:           req.Body,
		VehicleType:    req.VehicleType,
		VisitCondition: req.VisitCondition,
		RecommendedFor: req.RecommendedFor,
	}
	ratings := []struct {
		field string
		raw   json.RawMessage
		dst   *int
	}{
		{"overall_rating", req.OverallRating, &in.OverallRating},
		{"terrain_rating", req.TerrainRating, &in.TerrainRating},
		{"facilities_rating", req.FacilitiesRating, &in.FacilitiesRating},
		{"difficulty_rating", req.DifficultyRating, &in.DifficultyRating},
	}
	for _, r := range ratings {
		v, err := parseRating(r.field, r.raw)
		if err != nil {
			return in, err
		}
		*r.dst = v
	}
	if req.VisitDate != nil {
		d, err := time.Parse(dateLayout, *req.VisitDate)
		if err != nil {
			return in, apperrors.InvalidInput("visit_date must be a date in the format " + dateLayout)
		}
		in.VisitDate = &d
	}
	if req.RecommendedDuration != nil {
		d, err := domain.ParseRecommendedDuration(*req.RecommendedDuration)
		if err != nil {
			return in, apperrors.InvalidInput(err.Error())
		}
		in.RecommendedDuration = &d
	}
	return in, nil
}

// StatusRequest is the JSON request body for a moderation decision.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED HIDDEN"`
}

// --- Helpers ---

// actorFromRequest maps the authenticated claims onto a domain actor.
func actorFromRequest(r *http.Request) domain.Actor {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return domain.Anonymous()
	}
	return domain.Actor{UserID: claims.UserID, Role: domain.Role(claims.Role)}
}

// decodeBody decodes and validates the JSON body into dst, writing a 400
// and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, r, err)
		return false
	}
	return true
}

func optionalQuery(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func statusQuery(r *http.Request) (*domain.ReviewStatus, error) {
	v := optionalQuery(r, "status")
	if v == nil {
		return nil, nil
	}
	s, err := domain.ParseReviewStatus(*v)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return &s, nil
}

func floatQuery(r *http.Request, key string) (*float64, error) {
	v := optionalQuery(r, key)
	if v == nil {
		return nil, nil
	}
	f, err := strconv.ParseFloat(*v, 64)
	if err != nil {
		return nil, apperrors.InvalidInput(key + " must be a number")
	}
	return &f, nil
}

func boolQuery(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
