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

	"github.com/tourhub/service-booking/internal/platform/auth"
)

func newRouter(jwt *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	g := r.Group("/", AuthMiddleware(jwt))
	g.GET("/me", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id.String())
	})
	g.GET("/staff", RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := newRouter(jwt)
	userID := uuid.New()

	token, err := jwt.GenerateAccessToken(userID, "u@x.io", false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"bearer", "Bearer " + token, http.StatusOK},
		{"jwt scheme", "JWT " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
				assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestRequireStaff(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := newRouter(jwt)

	userToken, _ := jwt.GenerateAccessToken(uuid.New(), "u@x.io", false)
	staffToken, _ := jwt.GenerateAccessToken(uuid.New(), "s@x.io", true)

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := gin.New()
	r.GET("/tours", OptionalAuthMiddleware(jwt), func(c *gin.Context) {
		_, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "staff": GetIsStaff(c)})
	})

	staffToken, err := jwt.GenerateAccessToken(uuid.New(), "s@x.io", true)
	require.NoError(t, err)

	for header, want := range map[string]string{
		"":                     `{"authenticated":false,"staff":false}`,
		"Bearer not-a-token":   `{"authenticated":false,"staff":false}`,
		"Bearer " + staffToken: `{"authenticated":true,"staff":true}`,
	} {
		req := httptest.NewRequest(http.MethodGet, "/tours", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, want, w.Body.String())
	}
}
