package service

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"github.com/prperemyshlev/user-auth-service/pkg/observability"
	"go.uber.org/zap"
)

// PasswordResetTTL is how long a password recovery token stays valid
const PasswordResetTTL = time.Hour

const maxNameLength = 100

// CreateUserInput is the registration payload. Nil means the field was absent.
type CreateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}

// CreateUserResult is returned by a successful registration
type CreateUserResult struct {
	Name   string                `json:"name,omitempty"`
	Token  domain.GeneratedToken `json:"token"`
	UserID string                `json:"user_id"`
}

// AuthenticateResult is returned by a successful login
type AuthenticateResult struct {
	Name  string                `json:"name,omitempty"`
	Token domain.GeneratedToken `json:"token"`
}

// userService implements UserService interface
type userService struct {
	userRepo    repository.UserRepository
	authService AuthService
	mailer      Mailer
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repository.UserRepository,
	authService AuthService,
	mailer Mailer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		authService: authService,
		mailer:      mailer,
		metrics:     metrics,
		logger:      logger,
	}
}

func userError(message string, code int) error {
	return apperror.New(message, code, apperror.ClassUserService)
}

func (s *userService) validateCreate(input CreateUserInput) error {
	if input.Email == nil || !utils.ValidateEmail(utils.SanitizeEmail(*input.Email)) {
		return userError("Invalid email", http.StatusUnprocessableEntity)
	}
	if input.Password == nil || *input.Password == "" {
		return userError("Invalid password", http.StatusUnprocessableEntity)
	}
	if input.Name != nil {
		if err := validation.Validate(*input.Name, validation.Length(0, maxNameLength)); err != nil {
			return userError("Invalid name", http.StatusUnprocessableEntity)
		}
	}
	return nil
}

// Create registers a user and logs them in within the same call
func (s *userService) Create(ctx context.Context, input CreateUserInput, ip string) (*CreateUserResult, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:    utils.SanitizeEmail(*input.Email),
		Password: *input.Password,
	}
	if input.Name != nil {
		user.Name = *input.Name
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	auth, err := s.Authenticate(ctx, created.Email, *input.Password, ip)
	if err != nil {
		return nil, err
	}

	return &CreateUserResult{
		Name:   auth.Name,
		Token:  auth.Token,
		UserID: created.ID.Hex(),
	}, nil
}

// Authenticate checks credentials and appends a new token to the user's allow-list.
// Unknown email and wrong password produce the same error.
func (s *userService) Authenticate(ctx context.Context, email, password, ip string) (*AuthenticateResult, error) {
	if email == "" || password == "" {
		s.metrics.RecordAuthAttempt(ctx, observability.AuthInvalidInput)
		return nil, userError("Email and password are required", http.StatusUnprocessableEntity)
	}

	user, err := s.userRepo.ComparePassword(ctx, utils.SanitizeEmail(email), password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.metrics.RecordAuthAttempt(ctx, observability.AuthInvalidPassword)
		return nil, userError("Invalid password", http.StatusUnauthorized)
	}

	token, err := s.authService.GenerateJWT(map[string]any{"id": user.ID.Hex()}, s.authService.TokenTTL())
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to generate token", http.StatusInternalServerError, apperror.ClassUserService)
	}

	added, err := s.userRepo.AddJWT(ctx, user.ID.Hex(), token, ip)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, userError("Failed to register token", http.StatusInternalServerError)
	}

	s.metrics.RecordAuthAttempt(ctx, observability.AuthSuccess)
	s.logger.Info("user authenticated", zap.String("user_id", user.ID.Hex()))

	return &AuthenticateResult{Name: user.Name, Token: token}, nil
}

// Logout revokes the token used for the current request
func (s *userService) Logout(ctx context.Context, userID, token string) error {
	revoked, err := s.authService.RevokeJWT(ctx, userID, token)
	if err != nil {
		return err
	}
	if !revoked {
		return apperror.NewDecodeError("Invalid JWT", http.StatusUnauthorized)
	}
	return nil
}

// RequestEmailConfirmation issues a 6-digit code and mails it to the user
func (s *userService) RequestEmailConfirmation(ctx context.Context, userID string) (time.Time, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if user == nil {
		return time.Time{}, userError("User not found", http.StatusNotFound)
	}
	if user.State == domain.UserStateActive {
		return time.Time{}, userError("Email already confirmed", http.StatusConflict)
	}

	code := s.authService.Generate6DigitToken()
	if _, err := s.userRepo.SetEmailConfirmationToken(ctx, userID, code.Token, code.ExpiresIn); err != nil {
		return time.Time{}, err
	}

	if err := s.mailer.SendEmailConfirmation(ctx, user.Email, code.Token, code.ExpiresIn); err != nil {
		return time.Time{}, apperror.Wrap(err, "Failed to send confirmation email", http.StatusInternalServerError, apperror.ClassUserService)
	}

	return code.ExpiresIn, nil
}

// ConfirmEmail consumes a confirmation code issued to userID and activates the account
func (s *userService) ConfirmEmail(ctx context.Context, userID, token string) (*domain.UserView, error) {
	if token == "" {
		return nil, userError("Token is required", http.StatusUnprocessableEntity)
	}

	user, err := s.userRepo.ConsumeEmailConfirmationToken(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userError("Invalid token", http.StatusUnauthorized)
	}

	view := user.View()
	return &view, nil
}

// RequestPasswordReset mails a recovery token. An unknown email is not reported.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	email = utils.SanitizeEmail(email)
	if !utils.ValidateEmail(email) {
		return userError("Invalid email", http.StatusUnprocessableEntity)
	}

	user, err := s.userRepo.FindOne(ctx, repository.Filter{"email": email})
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.Debug("password reset for unknown email")
		return nil
	}

	token, err := s.userRepo.SetPasswordResetToken(ctx, user.ID.Hex(), uuid.NewString(), time.Now().Add(PasswordResetTTL))
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token.Token, token.ExpiresAt); err != nil {
		s.logger.Error("failed to send password reset email",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err),
		)
	}
	return nil
}

// ResetPassword consumes a recovery token and stores the new password
func (s *userService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return userError("Token is required", http.StatusUnprocessableEntity)
	}
	if password == "" {
		return userError("Invalid password", http.StatusUnprocessableEntity)
	}

	// skips the bcrypt hash for tokens that cannot be consumed
	exists, err := s.userRepo.ExistsPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !exists {
		return userError("Invalid token", http.StatusUnauthorized)
	}

	consumed, err := s.userRepo.ConsumePasswordResetToken(ctx, token, password)
	if err != nil {
		return err
	}
	if !consumed {
		return userError("Invalid token", http.StatusUnauthorized)
	}
	return nil
}
