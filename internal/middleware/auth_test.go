package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"commute/internal/domain"
)

type verifierFunc func(string) (domain.Actor, error)

func (f verifierFunc) Verify(token string) (domain.Actor, error) { return f(token) }

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	verifier := verifierFunc(func(token string) (domain.Actor, error) {
		if token == "good" {
			return domain.Actor{ID: "biz-1", Role: domain.RoleBusiness}, nil
		}
		return domain.Actor{}, errors.New("bad token")
	})

	r := gin.New()
	r.Use(AuthMiddleware(verifier))
	r.GET("/whoami", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, actor.ID+"/"+string(actor.Role))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid token", "Bearer good", http.StatusOK, "biz-1/business"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"empty token", "Bearer   ", http.StatusUnauthorized, ""},
		{"rejected token", "Bearer bad", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestActorFrom_Missing(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := ActorFrom(c)
	assert.False(t, ok)
}
