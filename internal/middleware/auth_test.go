package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, secret, operatorID, role string, ttl time.Duration) string {
	t.Helper()
	claims := &JWTClaims{
		OperatorID: operatorID,
		Name:       "Ana",
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authEngine(roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuth(testSecret), RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, OperatorID(c).String())
	})
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := authEngine(RoleOperator, RoleManager)
	op := uuid.New()

	w := get(r, signToken(t, testSecret, op.String(), RoleOperator, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, op.String(), w.Body.String())

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong secret", signToken(t, "other", op.String(), RoleOperator, time.Hour)},
		{"expired", signToken(t, testSecret, op.String(), RoleOperator, -time.Minute)},
		{"no operator", signToken(t, testSecret, "not-a-uuid", RoleOperator, time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, tc.token).Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := authEngine(RoleAdmin)
	w := get(r, signToken(t, testSecret, uuid.NewString(), RoleManager, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(r, signToken(t, testSecret, uuid.NewString(), RoleAdmin, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
