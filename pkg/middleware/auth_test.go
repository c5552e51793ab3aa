package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func stubValidator(ctx context.Context, token string) (*Claims, error) {
	switch token {
	case "user-token":
		return &Claims{UserID: "u1", Role: "USER"}, nil
	case "admin-token":
		return &Claims{UserID: "a1", Role: "ADMIN"}, nil
	case "down":
		return nil, apperrors.Unavailable("session service unreachable")
	default:
		return nil, fmt.Errorf("parse token: %w", apperrors.ErrUnauthenticated)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid user", "Bearer user-token", http.StatusOK, "u1"},
		{"lowercase scheme", "bearer admin-token", http.StatusOK, "a1"},
		{"bad scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"rejected token", "Bearer forged", http.StatusUnauthorized, ""},
		{"provider down", "Bearer down", http.StatusServiceUnavailable, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			h := Authenticate(stubValidator, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantUser, gotUser)
			if tc.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
		wantCode   string
	}{
		{"anonymous", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"wrong role", &Claims{UserID: "u1", Role: "USER"}, http.StatusForbidden, "FORBIDDEN"},
		{"admin", &Claims{UserID: "a1", Role: "ADMIN"}, http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireRole(testLogger(), "ADMIN")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tc.claims))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestClaimsFromContext_Anonymous(t *testing.T) {
	assert.Nil(t, ClaimsFromContext(context.Background()))
	assert.Empty(t, UserIDFromContext(context.Background()))
}
