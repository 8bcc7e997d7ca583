package utils

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
)

// NoExpiry issues a token without an exp claim
const NoExpiry time.Duration = 0

// untimedExpiresIn is only reported back to the caller for NoExpiry tokens; the
// token itself never expires.
const untimedExpiresIn = 24 * time.Hour

var errInvalidAlgorithm = errors.New("invalid algorithm")

// TokenCodec signs and verifies HS256 tokens
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec creates a new codec for the given secret
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs payload. Every token carries iat and a random jti.
func (c *TokenCodec) Issue(payload map[string]any, ttl time.Duration) (domain.GeneratedToken, error) {
	if ttl < 0 {
		return domain.GeneratedToken{}, fmt.Errorf("negative token ttl %s", ttl)
	}

	now := c.now()
	claims := jwt.MapClaims{}
	maps.Copy(claims, payload)
	claims["iat"] = now.Unix()
	claims["jti"] = uuid.NewString()

	expiresIn := now.Add(untimedExpiresIn)
	if ttl != NoExpiry {
		expiresIn = now.Add(ttl)
		claims["exp"] = expiresIn.Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return domain.GeneratedToken{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return domain.GeneratedToken{JWT: signed, ExpiresIn: expiresIn}, nil
}

// Verify checks signature and expiry and returns the token claims
func (c *TokenCodec) Verify(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidAlgorithm
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, &apperror.TokenError{Message: verifyMessage(err), Err: err}
	}
	return claims, nil
}

func verifyMessage(err error) string {
	switch {
	case errors.Is(err, errInvalidAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "invalid algorithm"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "jwt malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "jwt expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "jwt not active"
	default:
		return "invalid token"
	}
}

// ClaimString reads a string claim
func ClaimString(claims jwt.MapClaims, key string) (string, bool) {
	v, ok := claims[key].(string)
	return v, ok && v != ""
}
