package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/config"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/service"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func (s *HandlerSuite) TestRateLimit() {
	router := s.newRouter(options{rateLimit: 2})
	body := map[string]any{"email": "p@x.com", "password": "x"}

	for range 2 {
		rec := s.serve(router, http.MethodPost, "/user/authenticate", body, nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := s.serve(router, http.MethodPost, "/user/authenticate", body, nil)
	s.requireFailure(rec, http.StatusTooManyRequests, "So many tries, try again later", apperror.ClassRateLimit)
	s.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
	s.Equal("60", rec.Header().Get("Retry-After"))
}

func (s *HandlerSuite) TestRateLimitFailsOpen() {
	s.mr.Close()

	rec := s.do(http.MethodPost, "/user", map[string]any{"email": "p@x.com", "password": "secret1"}, nil)
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestCORSPreflight() {
	router := gin.New()
	router.Use(CORSMiddleware(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", TokenHeader},
	}))
	router.OPTIONS("/user", func(c *gin.Context) {})

	rec := s.serve(router, http.MethodOptions, "/user", nil, map[string]string{"Origin": "http://localhost:3000"})
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(rec.Header().Get("Access-Control-Allow-Headers"), TokenHeader)

	rec = s.serve(router, http.MethodOptions, "/user", nil, map[string]string{"Origin": "http://evil.example"})
	s.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
}

type mockUserService struct {
	mock.Mock
}

var _ service.UserService = (*mockUserService)(nil)

func (m *mockUserService) Create(ctx context.Context, input service.CreateUserInput, ip string) (*service.CreateUserResult, error) {
	args := m.Called(ctx, input, ip)
	res, _ := args.Get(0).(*service.CreateUserResult)
	return res, args.Error(1)
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password, ip string) (*service.AuthenticateResult, error) {
	args := m.Called(ctx, email, password, ip)
	res, _ := args.Get(0).(*service.AuthenticateResult)
	return res, args.Error(1)
}

func (m *mockUserService) Logout(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockUserService) RequestEmailConfirmation(ctx context.Context, userID string) (time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockUserService) ConfirmEmail(ctx context.Context, userID, token string) (*domain.UserView, error) {
	args := m.Called(ctx, userID, token)
	res, _ := args.Get(0).(*domain.UserView)
	return res, args.Error(1)
}

func (m *mockUserService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockUserService) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

func (s *HandlerSuite) TestInternalErrorIsOpaque() {
	users := new(mockUserService)
	users.On("Authenticate", mock.Anything, "p@x.com", "secret1", testClientIP).
		Return(nil, errors.New("mongo: connection pool closed"))

	logger := zap.NewNop()
	logErrorService := service.NewLogErrorService(s.logErrors, nil, 0, logger)
	responder := NewResponder(config.VersionConfig{API: "2.0.0", Mod: "test"})
	errs := NewErrorResponder(responder, logErrorService, nil, logger)

	router := gin.New()
	router.POST("/user/authenticate", NewUserHandler(users, responder, errs).Authenticate)

	rec := s.serve(router, http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "secret1"}, nil)
	env := s.requireFailure(rec, http.StatusInternalServerError, "InternalError", "InternalError")
	s.NotContains(rec.Body.String(), "connection pool")

	records := s.logErrors.All()
	s.Require().Len(records, 1)
	s.Equal(records[0].ID.Hex(), env.Error.ID)
	s.Equal("mongo: connection pool closed", records[0].Message)
	s.Equal(apperror.ClassNone, records[0].ClassError)
	s.NotEmpty(records[0].Stack)
	users.AssertExpectations(s.T())
}

func (s *HandlerSuite) TestInternalErrorWithoutStoredRecord() {
	users := new(mockUserService)
	users.On("ResetPassword", mock.Anything, "t", "p").Return(errors.New("boom"))
	s.logErrors.FailWith(errors.New("log store down"))

	logger := zap.NewNop()
	responder := NewResponder(config.VersionConfig{})
	errs := NewErrorResponder(responder, service.NewLogErrorService(s.logErrors, nil, 0, logger), nil, logger)

	router := gin.New()
	router.POST("/reset", NewUserHandler(users, responder, errs).ResetPassword)

	rec := s.serve(router, http.MethodPost, "/reset", map[string]any{"token": "t", "password": "p"}, nil)
	env := s.requireFailure(rec, http.StatusInternalServerError, "InternalError", "InternalError")
	s.Empty(env.Error.ID)
}
