package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/rating"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository/memory"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/service"
	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/health"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/middleware"
)

// =============================================================================
// Test Helpers
// =============================================================================

const parkID = "park-1"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// tokenValidator treats the token as "<user_id>" or "<user_id>:ADMIN".
func tokenValidator(_ context.Context, token string) (*middleware.Claims, error) {
	if token == "bad" {
		return nil, apperrors.Unauthenticated("bad token")
	}
	userID, role, found := strings.Cut(token, ":")
	if !found {
		role = "USER"
	}
	return &middleware.Claims{UserID: userID, Role: role}, nil
}

type testServer struct {
	store   *memory.Store
	handler http.Handler
}

func newTestServer() *testServer {
	return newTestServerWith(RouterConfig{
		ServiceName: "parks-test",
		CacheMaxAge: 30,
	})
}

func newTestServerWith(cfg RouterConfig) *testServer {
	logger := newTestLogger()
	store := memory.NewStore()
	store.PutPark(domain.Park{ID: parkID, Name: "Rausch Creek", Slug: "rausch-creek", State: "PA"})

	engine := rating.NewEngine(store.Reviews(), store.RatingsWriter(), logger)
	parks := service.NewParkService(store.Parks(), nil, logger)
	reviews := service.NewReviewService(store.Reviews(), store.Parks(), engine, nil, nil, logger)
	helpful := service.NewHelpfulService(store.Reviews(), store.HelpfulVotes(), nil, logger)

	h := NewRouter(parks, reviews, helpful, tokenValidator, health.NewHandler(), cfg, logger)
	return &testServer{store: store, handler: h}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	TotalCount int `json:"total_count"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func reviewBody(overall int) map[string]any {
	return map[string]any{
		"overall_rating":       overall,
		"terrain_rating":       4,
		"facilities_rating":    3,
		"difficulty_rating":    2,
		"body":                 "Tight wooded trails.",
		"visit_date":           "2024-05-18",
		"recommended_duration": "FULL_DAY",
	}
}

func (s *testServer) createReview(t *testing.T, token string, overall int) domain.Review {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/parks/"+parkID+"/reviews", token, reviewBody(overall))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r domain.Review
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &r))
	return r
}

func (s *testServer) setStatus(t *testing.T, reviewID, status string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPatch, "/api/v1/admin/reviews/"+reviewID+"/status", "admin-1:ADMIN", map[string]string{"status": status})
}

func (s *testServer) park(t *testing.T) domain.Park {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/parks/"+parkID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Park
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &p))
	return p
}

// =============================================================================
// Review Lifecycle
// =============================================================================

func TestCreateReview_Created(t *testing.T) {
	s := newTestServer()

	r := s.createReview(t, "user-1", 5)
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Equal(t, "user-1", r.UserID)
	require.NotNil(t, r.VisitDate)
	assert.Equal(t, "2024-05-18", r.VisitDate.Format(dateLayout))
	require.NotNil(t, r.RecommendedDuration)
	assert.Equal(t, domain.DurationFullDay, *r.RecommendedDuration)
}

func TestCreateReview_Errors(t *testing.T) {
	s := newTestServer()
	s.createReview(t, "user-1", 5)

	tests := []struct {
		name   string
		token  string
		path   string
		body   map[string]any
		status int
		code   string
	}{
		{"anonymous", "", "/api/v1/parks/" + parkID + "/reviews", reviewBody(4), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"bad token", "bad", "/api/v1/parks/" + parkID + "/reviews", reviewBody(4), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"duplicate", "user-1", "/api/v1/parks/" + parkID + "/reviews", reviewBody(4), http.StatusConflict, "DUPLICATE_REVIEW"},
		{"rating out of range", "user-2", "/api/v1/parks/" + parkID + "/reviews", reviewBody(6), http.StatusBadRequest, "INVALID_RATING"},
		{"fractional rating", "user-2", "/api/v1/parks/" + parkID + "/reviews", withRating(reviewBody(4), "overall_rating", 4.5), http.StatusBadRequest, "INVALID_RATING"},
		{"string rating", "user-2", "/api/v1/parks/" + parkID + "/reviews", withRating(reviewBody(4), "terrain_rating", "5"), http.StatusBadRequest, "INVALID_RATING"},
		{"boolean rating", "user-2", "/api/v1/parks/" + parkID + "/reviews", withRating(reviewBody(4), "difficulty_rating", true), http.StatusBadRequest, "INVALID_RATING"},
		{"missing rating", "user-2", "/api/v1/parks/" + parkID + "/reviews", withRating(reviewBody(4), "facilities_rating", nil), http.StatusBadRequest, "INVALID_RATING"},
		{"unknown park", "user-2", "/api/v1/parks/nope/reviews", reviewBody(4), http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func withRating(body map[string]any, field string, value any) map[string]any {
	if value == nil {
		delete(body, field)
		return body
	}
	body[field] = value
	return body
}

func TestCreateReview_NonIntegerRatingMessage(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodPost, "/api/v1/parks/"+parkID+"/reviews", "user-1",
		withRating(reviewBody(4), "overall_rating", 4.5))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_RATING", env.Error.Code)
	assert.Equal(t, "overall_rating must be an integer between 1 and 5, got 4.5", env.Error.Message)
}

func TestCreateReview_WholeNumberFloatRatingAccepted(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodPost, "/api/v1/parks/"+parkID+"/reviews", "user-1",
		withRating(reviewBody(4), "overall_rating", 5.0))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestUpdateReview_NonIntegerRating(t *testing.T) {
	s := newTestServer()
	r := s.createReview(t, "user-1", 4)

	rec := s.do(t, http.MethodPut, "/api/v1/reviews/"+r.ID, "user-1",
		withRating(reviewBody(4), "overall_rating", "4"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_RATING", decode(t, rec).Error.Code)
}

func TestCreateReview_MissingBody(t *testing.T) {
	s := newTestServer()
	body := reviewBody(4)
	body["body"] = "   "

	rec := s.do(t, http.MethodPost, "/api/v1/parks/"+parkID+"/reviews", "user-1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_BODY", decode(t, rec).Error.Code)
}

func TestCreateReview_ValidationError(t *testing.T) {
	s := newTestServer()
	body := reviewBody(4)
	body["recommended_duration"] = "FORTNIGHT"
	body["visit_date"] = "18/05/2024"

	rec := s.do(t, http.MethodPost, "/api/v1/parks/"+parkID+"/reviews", "user-1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "recommended_duration")
	assert.Contains(t, env.Error.Fields, "visit_date")
}

func TestModerationUpdatesParkSummary(t *testing.T) {
	s := newTestServer()
	r1 := s.createReview(t, "user-1", 5)
	r2 := s.createReview(t, "user-2", 3)

	assert.Equal(t, 0, s.park(t).ReviewCount)

	require.Equal(t, http.StatusOK, s.setStatus(t, r1.ID, "APPROVED").Code)
	require.Equal(t, http.StatusOK, s.setStatus(t, r2.ID, "APPROVED").Code)

	p := s.park(t)
	assert.Equal(t, 2, p.ReviewCount)
	require.NotNil(t, p.AverageRating)
	assert.InDelta(t, 4.0, *p.AverageRating, 1e-9)

	require.Equal(t, http.StatusOK, s.setStatus(t, r2.ID, "HIDDEN").Code)
	p = s.park(t)
	assert.Equal(t, 1, p.ReviewCount)
	assert.InDelta(t, 5.0, *p.AverageRating, 1e-9)
}

func TestSetReviewStatus_Errors(t *testing.T) {
	s := newTestServer()
	r := s.createReview(t, "user-1", 5)

	rec := s.do(t, http.MethodPatch, "/api/v1/admin/reviews/"+r.ID+"/status", "user-1", map[string]string{"status": "APPROVED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.setStatus(t, r.ID, "PENDING")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec).Error.Code)

	rec = s.setStatus(t, r.ID, "DELETED")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.setStatus(t, "missing", "APPROVED")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReview_ResetsToPending(t *testing.T) {
	s := newTestServer()
	r := s.createReview(t, "user-1", 5)
	require.Equal(t, http.StatusOK, s.setStatus(t, r.ID, "APPROVED").Code)
	require.Equal(t, 1, s.park(t).ReviewCount)

	rec := s.do(t, http.MethodPut, "/api/v1/reviews/"+r.ID, "user-2", reviewBody(1))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/reviews/"+r.ID, "user-1", reviewBody(1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Review
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, domain.StatusPending, updated.Status)
	assert.Equal(t, 1, updated.OverallRating)

	assert.Equal(t, 0, s.park(t).ReviewCount)
}

func TestUnapprovedReviewLooksMissingToStrangers(t *testing.T) {
	s := newTestServer()
	r := s.createReview(t, "user-1", 5)

	for _, tc := range []struct {
		method string
		path   string
		body   map[string]any
	}{
		{http.MethodGet, "/api/v1/reviews/" + r.ID, nil},
		{http.MethodPut, "/api/v1/reviews/" + r.ID, reviewBody(1)},
		{http.MethodDelete, "/api/v1/reviews/" + r.ID, nil},
		{http.MethodPost, "/api/v1/reviews/" + r.ID + "/helpful", nil},
	} {
		rec := s.do(t, tc.method, tc.path, "user-2", tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)
		assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code, tc.method)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/reviews/"+r.ID, "user-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteReview(t *testing.T) {
	s := newTestServer()
	r := s.createReview(t, "user-1", 5)
	require.Equal(t, http.StatusOK, s.setStatus(t, r.ID, "APPROVED").Code)

	rec := s.do(t, http.MethodDelete, "/api/v1/reviews/"+r.ID, "user-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/reviews/"+r.ID, "user-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	p := s.park(t)
	assert.Equal(t, 0, p.ReviewCount)
	assert.Nil(t, p.AverageRating)

	rec = s.do(t, http.MethodGet, "/api/v1/reviews/"+r.ID, "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Helpful Votes
// =============================================================================

func TestToggleHelpful(t *testing.T) {
	s := newTestServer()
	r := s.createReview(t, "user-1", 5)
	require.Equal(t, http.StatusOK, s.setStatus(t, r.ID, "APPROVED").Code)
	path := "/api/v1/reviews/" + r.ID + "/helpful"

	rec := s.do(t, http.MethodPost, path, "user-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"review_id":"`+r.ID+`","has_voted":true,"helpful_count":1}`, string(decode(t, rec).Data))

	rec = s.do(t, http.MethodPost, path, "user-2", nil)
	assert.JSONEq(t, `{"review_id":"`+r.ID+`","has_voted":false,"helpful_count":0}`, string(decode(t, rec).Data))

	rec = s.do(t, http.MethodPost, path, "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SELF_VOTE", decode(t, rec).Error.Code)

	rec = s.do(t, http.MethodPost, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Listings And Visibility
// =============================================================================

func TestListReviews_Visibility(t *testing.T) {
	s := newTestServer()
	approved := s.createReview(t, "user-1", 5)
	s.createReview(t, "user-2", 3)
	require.Equal(t, http.StatusOK, s.setStatus(t, approved.ID, "APPROVED").Code)

	rec := s.do(t, http.MethodGet, "/api/v1/parks/"+parkID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).TotalCount)

	rec = s.do(t, http.MethodGet, "/api/v1/reviews?mine=true", "user-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).TotalCount)

	rec = s.do(t, http.MethodGet, "/api/v1/reviews?status=PENDING", "user-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/reviews?status=PENDING", "admin-1:ADMIN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).TotalCount)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/reviews", "user-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reviews?status=BOGUS", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListParks(t *testing.T) {
	s := newTestServer()
	s.store.PutPark(domain.Park{ID: "park-2", Name: "Hatfield McCoy", State: "WV"})

	rec := s.do(t, http.MethodGet, "/api/v1/parks?state=wv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).TotalCount)
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))

	rec = s.do(t, http.MethodGet, "/api/v1/parks?min_rating=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecomputeParkRatings(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodPost, "/api/v1/admin/parks/"+parkID+"/recompute", "admin-1:ADMIN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"park_id": "park-1",
		"ratings": {
			"average_rating": null,
			"average_difficulty": null,
			"average_terrain": null,
			"average_facilities": null,
			"review_count": 0,
			"average_recommended_stay": null
		}
	}`, string(decode(t, rec).Data))

	rec = s.do(t, http.MethodPost, "/api/v1/admin/parks/"+parkID+"/recompute", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit_ThrottlesWritesPerUser(t *testing.T) {
	s := newTestServerWith(RouterConfig{
		ServiceName: "parks-test",
		RateLimit:   &middleware.RateLimitConfig{RPS: 0.001, Burst: 2},
	})
	review := s.createReview(t, "author", 4)
	s.setStatus(t, review.ID, "APPROVED")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/reviews/"+review.ID+"/helpful", "voter", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/reviews/"+review.ID+"/helpful", "voter", nil).Code)
	rec := s.do(t, http.MethodPost, "/api/v1/reviews/"+review.ID+"/helpful", "voter", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, rec).Error.Code)

	// Reads and other callers are unaffected.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/reviews/"+review.ID, "voter", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/reviews/"+review.ID+"/helpful", "other", nil).Code)
}

func TestHealthLive(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
