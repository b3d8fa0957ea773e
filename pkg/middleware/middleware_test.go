package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"smart-bus/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func identityEcho(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetIdentity(r.Context())
	utils.ResponseSuccess(w, "ok", map[string]string{
		"holder_id": id.HolderID.String(),
		"category":  id.Category,
		"role":      id.Role,
	})
}

func TestJWTAuth(t *testing.T) {
	h := JWTAuth(testSecret, zap.NewNop())(http.HandlerFunc(identityEcho))
	holder := uuid.New()

	valid, err := IssueToken(testSecret, holder, "female", utils.RoleDriver, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, holder, "", "", -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken([]byte("other"), holder, "", "", time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: holder.String()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"alg none", "Bearer " + noneAlg, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), holder.String())
	assert.Contains(t, rec.Body.String(), `"category":"female"`)
	assert.Contains(t, rec.Body.String(), `"role":"driver"`)
}

func TestRequireRole(t *testing.T) {
	h := JWTAuth(testSecret, zap.NewNop())(
		RequireRole(zap.NewNop(), utils.RoleAdmin)(http.HandlerFunc(identityEcho)),
	)

	for role, want := range map[string]int{
		utils.RoleAdmin:     http.StatusOK,
		utils.RolePassenger: http.StatusForbidden,
		"":                  http.StatusForbidden,
	} {
		token, err := IssueToken(testSecret, uuid.New(), "", role, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}

func newIdempotentHandler(t *testing.T, status int) (http.Handler, *int32, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls int32
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		utils.ResponseJSON(w, status, status < 400, "handled", map[string]int32{"call": n}, nil)
	})
	return Idempotency(rdb, zap.NewNop())(inner), &calls, mr
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/wallets/me/funds", strings.NewReader(`{"amount":"10"}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	h, calls, _ := newIdempotentHandler(t, http.StatusCreated)

	first := post(h, "k-1")
	second := post(h, "k-1")

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))

	post(h, "k-2")
	post(h, "")
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	h, calls, mr := newIdempotentHandler(t, http.StatusOK)
	require.NoError(t, mr.Set("idempotency:anonymous:POST:/api/wallets/me/funds:k-1", idempotencyInFlight))

	rec := post(h, "k-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	h, calls, mr := newIdempotentHandler(t, http.StatusBadGateway)

	post(h, "k-1")
	post(h, "k-1")

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.False(t, mr.Exists("idempotency:anonymous:POST:/api/wallets/me/funds:k-1"))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/runs/{runID}/seats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/abc/seats", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRecoverReturns500(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"Internal server error"}`, rec.Body.String())
}
