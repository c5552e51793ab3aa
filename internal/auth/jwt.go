package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/middleware"
)

// Claims represents the JWT claims of an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 access tokens issued by the identity provider.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier. An empty issuer accepts any issuer.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Issue signs an access token. The service itself never issues tokens; this
// exists for local tooling and tests.
func (v *JWTVerifier) Issue(userID string, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Validate parses and validates an access token. It satisfies
// middleware.TokenValidator.
func (v *JWTVerifier) Validate(_ context.Context, tokenString string) (*middleware.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w: %w", apperrors.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthenticated("invalid access token claims")
	}
	return toMiddlewareClaims(claims.UserID, claims.Role)
}

func toMiddlewareClaims(userID, role string) (*middleware.Claims, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("token carries no user id")
	}
	switch domain.Role(role) {
	case domain.RoleUser, domain.RoleAdmin:
	case "":
		role = string(domain.RoleUser)
	default:
		return nil, apperrors.Unauthenticated(fmt.Sprintf("unknown role %q", role))
	}
	return &middleware.Claims{UserID: userID, Role: role}, nil
}
