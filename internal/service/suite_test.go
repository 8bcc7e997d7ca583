package service

import (
	"context"
	"sync"
	"time"

	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"github.com/prperemyshlev/user-auth-service/internal/repository/repotest"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

type sentMail struct {
	kind  string
	to    string
	token string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMailer) SendEmailConfirmation(_ context.Context, to, code string, _ time.Time) error {
	return m.record("confirmation", to, code)
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, token string, _ time.Time) error {
	return m.record("reset", to, token)
}

func (m *captureMailer) record(kind, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, token: token})
	return nil
}

func (m *captureMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// ServiceSuite wires the auth and user services over the in-memory store
type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	users  *repotest.Users
	mailer *captureMailer
	auth   AuthService
	svc    UserService
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = repotest.NewUsers()
	s.mailer = &captureMailer{}
	s.auth = NewAuthService(s.users, utils.NewTokenCodec(testSecret), 4, time.Hour, zap.NewNop())
	s.svc = NewUserService(s.users, s.auth, s.mailer, nil, zap.NewNop())
}

func ptr(s string) *string {
	return &s
}

// register creates a user and returns the registration result
func (s *ServiceSuite) register(email, password string) *CreateUserResult {
	res, err := s.svc.Create(s.ctx, CreateUserInput{
		Name:     ptr("Pat"),
		Email:    ptr(email),
		Password: ptr(password),
	}, "10.0.0.1")
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) setState(userID string, state domain.UserState) {
	ok, err := s.users.UpdateByID(s.ctx, userID, repository.Update{"$set": bson.M{"state": state}})
	s.Require().NoError(err)
	s.Require().True(ok)
}
