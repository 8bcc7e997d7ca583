package handler

import (
	"net/http"

	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
)

func (s *HandlerSuite) TestListLogErrors() {
	created := s.register("p@x.com", "secret1")
	s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "wrong"}, nil)
	s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "wrong"}, nil)
	s.do(http.MethodGet, "/missing", nil, nil)

	rec := s.do(http.MethodGet, "/log-errors?minutes=5", nil, withToken(created.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	records := decode[[]domain.LogError](s.T(), rec).Data
	s.Len(records, 3)

	rec = s.do(http.MethodGet, "/log-errors/codes", nil, withToken(created.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal([]domain.ErrorsGroupedByCode{
		{Code: http.StatusUnauthorized, Quantity: 2},
		{Code: http.StatusNotFound, Quantity: 1},
	}, decode[[]domain.ErrorsGroupedByCode](s.T(), rec).Data)

	s.True(s.mr.Exists("logError=cache:listError-5-"))
	s.True(s.mr.Exists("logError=cache:listCodes-1-"))
}

func (s *HandlerSuite) TestListLogErrorsForUser() {
	created := s.register("p@x.com", "secret1")
	s.do(http.MethodPost, "/user/logout", nil, withToken("not.a.jwt"))

	second := s.register("q@x.com", "secret1")
	s.do(http.MethodGet, "/user/authenticate/"+second.Token.JWT+"x", nil, nil)

	rec := s.do(http.MethodGet, "/log-errors?minutes=5&user_id="+created.UserID, nil, withToken(second.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Empty(decode[[]domain.LogError](s.T(), rec).Data)
}

func (s *HandlerSuite) TestListLogErrorsValidation() {
	created := s.register("p@x.com", "secret1")
	token := withToken(created.Token.JWT)

	rec := s.do(http.MethodGet, "/log-errors?minutes=abc", nil, token)
	s.requireFailure(rec, http.StatusUnprocessableEntity, "invalid timeInMinutes", apperror.ClassLogErrorService)

	rec = s.do(http.MethodGet, "/log-errors/codes?minutes=0", nil, token)
	s.requireFailure(rec, http.StatusUnprocessableEntity, "invalid timeInMinutes", apperror.ClassLogErrorService)

	rec = s.do(http.MethodGet, "/log-errors?minutes=200000000", nil, token)
	s.requireFailure(rec, http.StatusUnprocessableEntity, "invalid timeInMinutes", apperror.ClassLogErrorService)

	rec = s.do(http.MethodGet, "/log-errors?user_id=nope", nil, token)
	s.requireFailure(rec, http.StatusUnprocessableEntity, "invalid user_id", apperror.ClassLogErrorService)
}

func (s *HandlerSuite) TestListLogErrorsRequiresSession() {
	rec := s.do(http.MethodGet, "/log-errors", nil, nil)
	s.requireFailure(rec, http.StatusUnauthorized, "jwt malformed", apperror.ClassAuth)
}
