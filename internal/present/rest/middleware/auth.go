package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/present/rest/presenter"
	"github.com/sentrycore/site/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyEditor puts the editor id of a valid bearer token into the request
// context. Requests without one pass through unidentified.
func (s *AuthMiddleware) IdentifyEditor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyEditor")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")
		if authHeader != "" {
			editorID, err := s.identify(ctx, authHeader)
			if err != nil {
				span.RecordError(err)
			} else {
				ctx = context.WithValue(ctx, domain.EditorIdCtxKey, editorID)
				span.SetAttributes(attribute.String("EditorId", editorID))
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (s *AuthMiddleware) identify(ctx context.Context, authHeader string) (string, error) {
	token, err := bearerToken(authHeader)
	if err != nil {
		return "", err
	}

	result, err := s.auth.AuthJwt(ctx, token)
	if err != nil {
		return "", errors.Wrap(err, "AuthMiddleware.IdentifyEditor: s.auth.AuthJwt failed")
	}
	return result.EditorID, nil
}

func bearerToken(authHeader string) (string, error) {
	authType, token, ok := strings.Cut(authHeader, " ")
	if !ok || token == "" || strings.Contains(token, " ") {
		return "", fmt.Errorf("invalid authentication header")
	}
	if authType != "Bearer" {
		return "", fmt.Errorf("only Bearer is acceptable")
	}
	return token, nil
}

// RequireEditor rejects requests IdentifyEditor could not identify.
func (s *AuthMiddleware) RequireEditor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		editor, ok := c.Request().Context().Value(domain.EditorIdCtxKey).(string)
		if !ok || editor == "" {
			return presenter.Unauthorized(c, "valid bearer token required")
		}
		return next(c)
	}
}
