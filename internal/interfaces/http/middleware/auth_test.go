package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/infrastructure/auth"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/logger"
)

func newJWT(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-that-is-long-enough-for-hs256",
		Issuer:                "retail-core",
		AccessTokenExpiration: expiration,
	})
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := newJWT(time.Hour)
	r := gin.New()
	r.Use(RequestID(), Authenticate(jwtSvc))
	r.GET("/me", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     actor.UserID,
			"role":        actor.Role,
			"business_id": logger.GetBusinessID(c.Request.Context()),
		})
	})

	userID, businessID, shopID := uuid.New(), uuid.New(), uuid.New()

	t.Run("valid token resolves the actor", func(t *testing.T) {
		token, _, err := jwtSvc.Issue(auth.IssueInput{
			UserID:     userID,
			BusinessID: businessID,
			ShopID:     &shopID,
			Role:       identity.RoleShopWorker,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), businessID.String())
		assert.Contains(t, w.Body.String(), string(identity.RoleShopWorker))
	})

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "UNAUTHORIZED"},
		{"empty token", "Bearer ", "UNAUTHORIZED"},
		{"garbage token", "Bearer not-a-jwt", "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
		})
	}

	t.Run("expired token", func(t *testing.T) {
		token, _, err := newJWT(-time.Minute).Issue(auth.IssueInput{
			UserID:     userID,
			BusinessID: businessID,
			Role:       identity.RoleBusinessOwner,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})
}
