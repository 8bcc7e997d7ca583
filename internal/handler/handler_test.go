package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/config"
	"github.com/prperemyshlev/user-auth-service/internal/dto"
	"github.com/prperemyshlev/user-auth-service/internal/notify"
	"github.com/prperemyshlev/user-auth-service/internal/repository/repotest"
	"github.com/prperemyshlev/user-auth-service/internal/service"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"github.com/prperemyshlev/user-auth-service/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const (
	testSecret   = "test-secret-key-that-is-at-least-32-characters-long"
	testClientIP = "192.0.2.1"
)

type countingSender struct {
	mu   sync.Mutex
	sent int
}

func (s *countingSender) DialAndSend(m ...*gomail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent += len(m)
	return nil
}

// envelope mirrors dto.Response with a typed data field
type envelope[T any] struct {
	Code     int                `json:"code"`
	Message  string             `json:"message"`
	URL      string             `json:"url"`
	Method   string             `json:"method"`
	Error    *dto.ErrorResponse `json:"error"`
	Data     T                  `json:"data"`
	Versions dto.Versions       `json:"versions"`
}

type options struct {
	checkIP   bool
	rateLimit int
}

// HandlerSuite runs the HTTP surface over the in-memory store and miniredis
type HandlerSuite struct {
	suite.Suite
	mr        *miniredis.Miniredis
	users     *repotest.Users
	logErrors *repotest.LogErrors
	sender    *countingSender
	auth      service.AuthService
	router    *gin.Engine
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *HandlerSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.users = repotest.NewUsers()
	s.logErrors = repotest.NewLogErrors()
	s.sender = &countingSender{}
	s.router = s.newRouter(options{rateLimit: 100})
}

func (s *HandlerSuite) newRouter(opts options) *gin.Engine {
	logger := zap.NewNop()
	rdb := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: s.mr.Addr()}))
	s.T().Cleanup(func() { _ = rdb.Close() })

	s.auth = service.NewAuthService(s.users, utils.NewTokenCodec(testSecret), 4, time.Hour, logger)
	mailer := notify.NewMailerWithSender("no-reply@example.com", s.sender, logger)
	userService := service.NewUserService(s.users, s.auth, mailer, nil, logger)
	logErrorService := service.NewLogErrorService(s.logErrors, service.NewRedisCache(rdb), 10*time.Second, logger)

	responder := NewResponder(config.VersionConfig{API: "2.0.0", Mod: "test"})
	errs := NewErrorResponder(responder, logErrorService, nil, logger)

	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggerMiddleware(logger))
	Routes{
		Users:     NewUserHandler(userService, responder, errs),
		LogErrors: NewLogErrorHandler(logErrorService, responder, errs),
		Errors:    errs,
		Auth:      AuthMiddleware(s.auth, errs, opts.checkIP),
		RateLimit: RateLimitMiddleware(service.NewRateLimiter(rdb), opts.rateLimit, time.Minute, IPBasedKey, errs, logger),
	}.Register(router)
	return router
}

func (s *HandlerSuite) serve(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = testClientIP + ":40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return s.serve(s.router, method, path, body, headers)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func withToken(token string) map[string]string {
	return map[string]string{TokenHeader: token}
}

// register creates a user over HTTP and returns the registration payload
func (s *HandlerSuite) register(email, password string) service.CreateUserResult {
	rec := s.do(http.MethodPost, "/user", map[string]any{"name": "Pat", "email": email, "password": password}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[service.CreateUserResult](s.T(), rec).Data
}

func (s *HandlerSuite) requireFailure(rec *httptest.ResponseRecorder, code int, message, classError string) envelope[any] {
	s.Require().Equal(code, rec.Code, rec.Body.String())
	env := decode[any](s.T(), rec)
	s.Equal(code, env.Code)
	s.Equal(message, env.Message)
	s.Require().NotNil(env.Error)
	s.Equal(classError, env.Error.ClassError)
	return env
}

func (s *HandlerSuite) storedCodes() []int {
	var codes []int
	for _, r := range s.logErrors.All() {
		codes = append(codes, r.Code)
	}
	return codes
}

