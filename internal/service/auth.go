package service

import (
	"context"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/sentrycore/site/internal/domain"
)

var tracer = otel.Tracer("auth")

type AuthService struct {
	config *domain.Config
	now    func() time.Time
}

func NewAuthService(config *domain.Config) *AuthService {
	return &AuthService{
		config: config,
		now:    time.Now,
	}
}

type AuthResult struct {
	EditorID string
}

// IssueJwt signs a token for an editor of the admin API.
func (s *AuthService) IssueJwt(ctx context.Context, editorID string, ttl time.Duration) (string, error) {
	_, span := tracer.Start(ctx, "Auth.Service.IssueJwt")
	defer span.End()

	if s.config.JWTSecret == "" {
		err := fmt.Errorf("jwt secret is not configured")
		span.RecordError(err)
		return "", err
	}
	if editorID == "" {
		err := fmt.Errorf("editor id is required")
		span.RecordError(err)
		return "", err
	}

	now := s.now()
	claims := gojwt.RegisteredClaims{
		Issuer:    s.config.JWTIssuer,
		Subject:   editorID,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to sign jwt")
	}
	return signed, nil
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	if s.config.JWTSecret == "" {
		err := fmt.Errorf("jwt secret is not configured")
		span.RecordError(err)
		return nil, err
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.config.JWTIssuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.config.JWTIssuer))
	}

	var claims gojwt.RegisteredClaims
	_, err := gojwt.ParseWithClaims(token, &claims, func(t *gojwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Subject == "" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	return &AuthResult{EditorID: claims.Subject}, nil
}
