package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/labstack/echo/v4"

	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/service"
)

type authServer struct {
	e    *echo.Echo
	seen string
}

func newAuthServer(t *testing.T) (*authServer, string) {
	t.Helper()
	auth := service.NewAuthService(&domain.Config{JWTSecret: "secret", JWTIssuer: "site"})
	token, err := auth.IssueJwt(context.Background(), "editor-1", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	m := NewAuthMiddleware(auth)

	s := &authServer{e: echo.New()}
	handler := func(c echo.Context) error {
		s.seen, _ = c.Request().Context().Value(domain.EditorIdCtxKey).(string)
		return c.NoContent(http.StatusNoContent)
	}
	s.e.GET("/open", handler, m.IdentifyEditor)
	s.e.GET("/admin", handler, m.IdentifyEditor, m.RequireEditor)
	return s, token
}

func (s *authServer) get(path, authHeader string) int {
	s.seen = ""
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec.Code
}

func TestIdentifyEditorValidToken(t *testing.T) {
	s, token := newAuthServer(t)

	assert.Equal(t, s.get("/open", "Bearer "+token), http.StatusNoContent)
	assert.Equal(t, s.seen, "editor-1")

	assert.Equal(t, s.get("/admin", "Bearer "+token), http.StatusNoContent)
	assert.Equal(t, s.seen, "editor-1")
}

func TestIdentifyEditorPassesThroughUnidentified(t *testing.T) {
	s, token := newAuthServer(t)

	headers := []string{
		"",
		token,
		"Bearer",
		"Bearer " + token + " extra",
		"Basic " + token,
		"Bearer not-a-jwt",
	}
	for _, header := range headers {
		assert.Equal(t, s.get("/open", header), http.StatusNoContent)
		assert.Equal(t, s.seen, "")
	}
}

func TestRequireEditorRejectsUnidentified(t *testing.T) {
	s, token := newAuthServer(t)

	assert.Equal(t, s.get("/admin", ""), http.StatusUnauthorized)
	assert.Equal(t, s.get("/admin", "Basic "+token), http.StatusUnauthorized)
	assert.Equal(t, s.get("/admin", "Bearer not-a-jwt"), http.StatusUnauthorized)
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("Bearer abc.def.ghi")
	assert.Equal(t, err, nil)
	assert.Equal(t, token, "abc.def.ghi")

	for _, header := range []string{"Bearer", "Bearer ", "Token abc", "Bearer a b"} {
		if _, err := bearerToken(header); err == nil {
			t.Fatalf("expected error for %q", header)
		}
	}
}
