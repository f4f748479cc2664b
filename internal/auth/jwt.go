package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

var (
	ErrMalformedToken = errors.New("malformed identity token")
	ErrExpiredToken   = errors.New("identity token has expired")
	ErrMissingEmail   = errors.New("identity token carries no email")
)

// GoogleExchanger is the backend call a GoogleStrategy completes with.
type GoogleExchanger interface {
	GoogleAuth(ctx context.Context, token string) (*models.User, error)
}

// GoogleClaims is the subset of a Google ID token the client looks at.
type GoogleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// GoogleStrategy exchanges a Google ID token for a backend session.
//
// The signature is verified by the backend; the client only checks that the
// token is well formed, unexpired and names an account, so obviously broken
// credentials never leave the device.
type GoogleStrategy struct {
	exchanger GoogleExchanger
	now       func() time.Time
}

// NewGoogleStrategy creates a strategy that completes through exchanger.
func NewGoogleStrategy(exchanger GoogleExchanger) *GoogleStrategy {
	return &GoogleStrategy{exchanger: exchanger, now: time.Now}
}

func (s *GoogleStrategy) Name() string {
	return "google"
}

// Inspect decodes the token without verifying its signature.
func (s *GoogleStrategy) Inspect(token string) (*GoogleClaims, error) {
	claims := &GoogleClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	if claims.Email == "" {
		return nil, ErrMissingEmail
	}
	return claims, nil
}

func (s *GoogleStrategy) Exchange(ctx context.Context, credential string) (*models.User, error) {
	if _, err := s.Inspect(credential); err != nil {
		return nil, err
	}
	user, err := s.exchanger.GoogleAuth(ctx, strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange google token: %w", err)
	}
	return user, nil
}
