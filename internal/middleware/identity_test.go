package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/types"
)

func identityRouter(t *testing.T) (*gin.Engine, *requestdata.Actor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { log.Sync() })

	var seen requestdata.Actor
	router := gin.New()
	router.Use(NewIdentityMiddleware(log).RequireIdentity())
	router.GET("/whoami", func(c *gin.Context) {
		actor, ok := requestdata.ActorFrom(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		seen = actor
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestRequireIdentityPropagatesActor(t *testing.T) {
	router, seen := identityRouter(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", userID.String())
	req.Header.Set("X-User-Role", types.RoleStudent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if seen.UserID != userID {
		t.Errorf("actor user id = %s, want %s", seen.UserID, userID)
	}
	if seen.Role != types.RoleStudent {
		t.Errorf("actor role = %q, want %q", seen.Role, types.RoleStudent)
	}
}

func TestRequireIdentityRejections(t *testing.T) {
	router, _ := identityRouter(t)

	cases := []struct {
		name string
		id   string
		role string
	}{
		{"missing id", "", types.RoleStudent},
		{"bad id", "not-a-uuid", types.RoleStudent},
		{"nil id", uuid.Nil.String(), types.RoleStudent},
		{"missing role", uuid.NewString(), ""},
		{"unknown role", uuid.NewString(), "admin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.id != "" {
				req.Header.Set("X-User-ID", tc.id)
			}
			if tc.role != "" {
				req.Header.Set("X-User-Role", tc.role)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}
