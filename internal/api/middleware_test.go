package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, userID primitive.ObjectID, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := &jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "kinetix",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// stubGuard lets tests dictate the guard outcome.
type stubGuard struct {
	err error
}

func (g stubGuard) CheckClientAccess(context.Context, primitive.ObjectID) error {
	return g.err
}

func setupAuthTestRouter(guard service.SubscriptionGuardService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	protected := router.Group("", AuthMiddleware(testSecret))
	protected.GET("/trainer-only", RoleMiddleware(domain.RoleTrainer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	protected.GET("/client-only", RoleMiddleware(domain.RoleClient), SubscriptionGuardMiddleware(guard), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := setupAuthTestRouter(stubGuard{})
	w := doRequest(router, "/trainer-only", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	router := setupAuthTestRouter(stubGuard{})
	w := doRequest(router, "/trainer-only", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router := setupAuthTestRouter(stubGuard{})
	token := signTestToken(t, primitive.NewObjectID(), domain.RoleTrainer, -time.Hour)
	w := doRequest(router, "/trainer-only", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestRoleMiddleware(t *testing.T) {
	router := setupAuthTestRouter(stubGuard{})

	trainerToken := signTestToken(t, primitive.NewObjectID(), domain.RoleTrainer, time.Hour)
	clientToken := signTestToken(t, primitive.NewObjectID(), domain.RoleClient, time.Hour)

	assert.Equal(t, http.StatusOK, doRequest(router, "/trainer-only", trainerToken).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(router, "/trainer-only", clientToken).Code)
}

func TestSubscriptionGuardMiddleware_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"healthy", nil, http.StatusOK},
		{"no profile", service.ErrGuardUnauthorized, http.StatusUnauthorized},
		{"no trainer", service.ErrNoTrainerAssigned, http.StatusForbidden},
		{"inactive", service.ErrSubscriptionInactive, http.StatusForbidden},
		{"expired", service.ErrSubscriptionExpired, http.StatusForbidden},
		{"lookup failure is opaque", errors.New("mongo timeout"), http.StatusForbidden},
	}

	token := signTestToken(t, primitive.NewObjectID(), domain.RoleClient, time.Hour)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupAuthTestRouter(stubGuard{err: tc.err})
			w := doRequest(router, "/client-only", token)
			assert.Equal(t, tc.want, w.Code)
			if tc.name == "lookup failure is opaque" {
				assert.NotContains(t, w.Body.String(), "mongo")
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1, 2))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := doRequest(router, "/ping", "")
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
