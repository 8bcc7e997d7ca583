package service

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"go.uber.org/zap"
)

// UnknownIP is reported when the issuing IP of a token is not recorded
const UnknownIP = "257"

// authService implements AuthService interface
type authService struct {
	userRepo   repository.UserRepository
	codec      *utils.TokenCodec
	bcryptCost int
	tokenTTL   time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	codec *utils.TokenCodec,
	bcryptCost int,
	tokenTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		codec:      codec,
		bcryptCost: bcryptCost,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// HashPassword hashes with cost, or the configured cost when cost <= 0
func (s *authService) HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = s.bcryptCost
	}
	return utils.HashPassword(password, cost)
}

func (s *authService) ComparePassword(password, hash string) bool {
	return utils.CheckPasswordHash(password, hash)
}

func (s *authService) GenerateJWT(payload map[string]any, ttl time.Duration) (domain.GeneratedToken, error) {
	return s.codec.Issue(payload, ttl)
}

// ValidateJWT checks signature and expiry only
func (s *authService) ValidateJWT(token string) (jwt.MapClaims, error) {
	return s.codec.Verify(token)
}

// TokenTTL is the lifetime of session tokens
func (s *authService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// DecodeJWT resolves a bearer token to its user. The token must verify and
// be a live allow-list entry of the user named by its id claim; a blocked
// user is rejected with 473.
func (s *authService) DecodeJWT(ctx context.Context, token, requestURL string) (*domain.DecodedSession, error) {
	claims, err := s.ValidateJWT(token)
	if err != nil {
		return nil, err
	}

	id, ok := utils.ClaimString(claims, "id")
	if !ok {
		s.logger.Debug("token without id claim", zap.String("url", requestURL))
		return nil, apperror.NewDecodeError("Invalid JWT", http.StatusUnauthorized)
	}

	user, err := s.userRepo.FindByLiveJWT(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Debug("token not in allow-list",
			zap.String("user_id", id),
			zap.String("url", requestURL),
		)
		return nil, apperror.NewDecodeError("Invalid JWT", http.StatusUnauthorized)
	}

	if user.State == domain.UserStateBlocked {
		return nil, apperror.NewDecodeError("User blocked", apperror.StatusBlocked)
	}

	ip, ok := user.JWTIP(token)
	if !ok {
		ip = UnknownIP
	}

	return &domain.DecodedSession{
		UserDecoded: user.View(),
		IP:          ip,
	}, nil
}

// RevokeJWT deactivates an allow-list entry; a revoked token never becomes live again
func (s *authService) RevokeJWT(ctx context.Context, userID, token string) (bool, error) {
	return s.userRepo.DeactivateJWT(ctx, userID, token)
}

func (s *authService) Generate6DigitToken() domain.DigitToken {
	return utils.GenerateDigitToken()
}
