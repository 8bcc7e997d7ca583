package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
)

// AuthService issues and resolves session tokens
type AuthService interface {
	HashPassword(password string, cost int) (string, error)
	ComparePassword(password, hash string) bool
	GenerateJWT(payload map[string]any, ttl time.Duration) (domain.GeneratedToken, error)
	ValidateJWT(token string) (jwt.MapClaims, error)
	DecodeJWT(ctx context.Context, token, requestURL string) (*domain.DecodedSession, error)
	RevokeJWT(ctx context.Context, userID, token string) (bool, error)
	Generate6DigitToken() domain.DigitToken
	TokenTTL() time.Duration
}

// UserService covers registration, login and the account e-mail flows
type UserService interface {
	Create(ctx context.Context, input CreateUserInput, ip string) (*CreateUserResult, error)
	Authenticate(ctx context.Context, email, password, ip string) (*AuthenticateResult, error)
	Logout(ctx context.Context, userID, token string) error
	RequestEmailConfirmation(ctx context.Context, userID string) (time.Time, error)
	ConfirmEmail(ctx context.Context, userID, token string) (*domain.UserView, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// LogErrorService records and lists handled failures
type LogErrorService interface {
	Create(ctx context.Context, input LogErrorInput) (string, error)
	List(ctx context.Context, minutes int, userID string) ([]domain.LogError, error)
	ListCodes(ctx context.Context, minutes int, userID string) ([]domain.ErrorsGroupedByCode, error)
}

// Cache stores short-lived values under string keys
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Mailer delivers the account e-mails
type Mailer interface {
	SendEmailConfirmation(ctx context.Context, to, code string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error
}
