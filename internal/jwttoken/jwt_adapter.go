package jwttoken

import (
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/middleware"
	pstrings "github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/strings"
)

// ToMiddlewareClaims converts token claims into the middleware's
// transport-facing shape. Roles are normalized so role checks never depend
// on how the issuer formatted the claim.
func ToMiddlewareClaims(claims *Claims) *middleware.Claims {
	return &middleware.Claims{
		Subject: claims.Subject,
		Roles:   pstrings.DedupeAndTrimLower(claims.Roles),
	}
}

// JWTServiceAdapter implements middleware.JWTValidator on top of JWTService.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
