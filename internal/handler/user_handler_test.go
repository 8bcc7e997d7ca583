package handler

import (
	"errors"
	"net/http"

	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/dto"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
)

func (s *HandlerSuite) TestRegister() {
	rec := s.do(http.MethodPost, "/user", map[string]any{"name": "Pat", "email": "p@x.com", "password": "secret1"}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	env := decode[map[string]any](s.T(), rec)
	s.Equal(http.StatusCreated, env.Code)
	s.Equal("Created", env.Message)
	s.Equal(http.MethodPost, env.Method)
	s.Equal("http://example.com/user", env.URL)
	s.Nil(env.Error)
	s.Equal("Pat", env.Data["name"])
	s.NotEmpty(env.Data["user_id"])
	token, ok := env.Data["token"].(map[string]any)
	s.Require().True(ok)
	s.NotEmpty(token["jwt"])
	s.NotEmpty(token["expiresIn"])

	s.Equal(dto.Versions{
		Version: dto.ClientVersions{API: "2.0.0", Web: "1.0.0", Android: "1.0.0", IOS: "1.0.0"},
		Mod:     "test",
	}, env.Versions)
	s.NotEmpty(rec.Header().Get(RequestIDHeader))
}

func (s *HandlerSuite) TestRegisterDuplicateEmail() {
	s.register("p@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user", map[string]any{"email": "p@x.com", "password": "other"}, nil)
	s.requireFailure(rec, http.StatusConflict, "Duplicate value: email", apperror.ClassDatabaseValidation)

	s.Equal(1, s.users.Len())
	s.Equal([]int{http.StatusConflict}, s.storedCodes())
}

func (s *HandlerSuite) TestRegisterValidation() {
	tests := []struct {
		name    string
		body    any
		message string
	}{
		{name: "empty body", body: nil, message: "Invalid email"},
		{name: "email not a string", body: `{"email": 42, "password": "secret1"}`, message: "Invalid email"},
		{name: "password not a string", body: `{"email": "p@x.com", "password": true}`, message: "Invalid password"},
		{name: "name not a string", body: `{"name": [], "email": "p@x.com", "password": "secret1"}`, message: "Invalid name"},
		{name: "missing password", body: map[string]any{"email": "p@x.com"}, message: "Invalid password"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/user", tt.body, nil)
			s.requireFailure(rec, http.StatusUnprocessableEntity, tt.message, apperror.ClassUserService)
		})
	}
	s.Zero(s.users.Len())
}

func (s *HandlerSuite) TestRegisterMalformedJSON() {
	rec := s.do(http.MethodPost, "/user", `{"email":`, nil)
	s.requireFailure(rec, http.StatusBadRequest, "Invalid JSON body", apperror.ClassRequest)
}

func (s *HandlerSuite) TestAuthenticate() {
	created := s.register("p@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "secret1"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	env := decode[map[string]any](s.T(), rec)
	s.Equal("Authenticate", env.Message)
	s.Equal("Pat", env.Data["name"])

	user, err := s.users.FindByID(s.T().Context(), created.UserID)
	s.Require().NoError(err)
	s.Require().Len(user.JWTs, 2)
	for _, entry := range user.JWTs {
		s.True(entry.Active)
		s.Equal(testClientIP, entry.IP)
	}
}

func (s *HandlerSuite) TestAuthenticateFailures() {
	s.register("p@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "wrong"}, nil)
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid password", apperror.ClassUserService)

	rec = s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "nobody@x.com", "password": "secret1"}, nil)
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid password", apperror.ClassUserService)

	rec = s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com"}, nil)
	s.requireFailure(rec, http.StatusUnprocessableEntity, "Email and password are required", apperror.ClassUserService)

	s.Equal([]int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnprocessableEntity}, s.storedCodes())
}

func (s *HandlerSuite) TestValidateJWT() {
	created := s.register("p@x.com", "secret1")

	byParam := s.do(http.MethodGet, "/user/authenticate/"+created.Token.JWT, nil, nil)
	s.Require().Equal(http.StatusOK, byParam.Code, byParam.Body.String())

	rec := s.do(http.MethodGet, "/user/authenticate", nil, withToken(created.Token.JWT))
	env := decode[map[string]any](s.T(), rec)
	s.Equal("Valid JWT", env.Message)
	s.Equal(created.UserID, env.Data["id"])
	s.Equal("Pat", env.Data["name"])
	s.Equal(string(domain.UserStateEmailNotVerified), env.Data["state"])
	s.NotContains(env.Data, "email")
	s.NotContains(env.Data, "password")
	s.NotContains(env.Data, "JWTs")
}

func (s *HandlerSuite) TestValidateJWTFailures() {
	created := s.register("p@x.com", "secret1")

	rec := s.do(http.MethodGet, "/user/authenticate", nil, withToken("not.a.jwt"))
	env := s.requireFailure(rec, http.StatusUnauthorized, "jwt malformed", apperror.ClassAuth)
	s.Equal("AuthClass: jwt malformed", env.Error.Description)

	rec = s.do(http.MethodGet, "/user/authenticate", nil, nil)
	s.requireFailure(rec, http.StatusUnauthorized, "jwt malformed", apperror.ClassAuth)

	ok, err := s.users.UpdateByID(s.T().Context(), created.UserID, repository.Update{"$set": bson.M{"state": domain.UserStateBlocked}})
	s.Require().NoError(err)
	s.Require().True(ok)

	rec = s.do(http.MethodGet, "/user/authenticate", nil, withToken(created.Token.JWT))
	env = s.requireFailure(rec, apperror.StatusBlocked, "User blocked", apperror.ClassAuthServiceDecode)
	s.Equal("AuthServiceDecodeError: User blocked", env.Error.Description)
}

func (s *HandlerSuite) TestLogout() {
	created := s.register("p@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user/logout", nil, withToken(created.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/user/authenticate", nil, withToken(created.Token.JWT))
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid JWT", apperror.ClassAuthServiceDecode)
}

func (s *HandlerSuite) TestCheckIP() {
	router := s.newRouter(options{checkIP: true, rateLimit: 100})
	created := s.register("p@x.com", "secret1")

	rec := s.serve(router, http.MethodGet, "/user/authenticate", nil, withToken(created.Token.JWT))
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	auth, err := s.auth.GenerateJWT(map[string]any{"id": created.UserID}, s.auth.TokenTTL())
	s.Require().NoError(err)
	added, err := s.users.AddJWT(s.T().Context(), created.UserID, auth, "198.51.100.7")
	s.Require().NoError(err)
	s.Require().True(added)

	rec = s.serve(router, http.MethodGet, "/user/authenticate", nil, withToken(auth.JWT))
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid IP", apperror.ClassAuth)
}

func (s *HandlerSuite) TestEmailConfirmationFlow() {
	created := s.register("p@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user/email-confirmation", nil, withToken(created.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(1, s.sender.sent)

	user, err := s.users.FindByID(s.T().Context(), created.UserID)
	s.Require().NoError(err)
	s.Require().Len(user.EmailConfirmation, 1)
	code := user.EmailConfirmation[0].Token

	rec = s.do(http.MethodPost, "/user/email-confirmation/confirm", map[string]any{"token": code}, nil)
	s.requireFailure(rec, http.StatusUnauthorized, "jwt malformed", apperror.ClassAuth)

	rec = s.do(http.MethodPost, "/user/email-confirmation/confirm", map[string]any{"token": code}, withToken(created.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	env := decode[domain.UserView](s.T(), rec)
	s.Equal(domain.UserStateActive, env.Data.State)

	rec = s.do(http.MethodPost, "/user/email-confirmation/confirm", map[string]any{"token": code}, withToken(created.Token.JWT))
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid token", apperror.ClassUserService)
}

func (s *HandlerSuite) TestEmailConfirmationOnlyForOwner() {
	owner := s.register("a@x.com", "secret1")
	other := s.register("b@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user/email-confirmation", nil, withToken(owner.Token.JWT))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	user, err := s.users.FindByID(s.T().Context(), owner.UserID)
	s.Require().NoError(err)
	s.Require().Len(user.EmailConfirmation, 1)
	code := user.EmailConfirmation[0].Token

	rec = s.do(http.MethodPost, "/user/email-confirmation/confirm", map[string]any{"token": code}, withToken(other.Token.JWT))
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid token", apperror.ClassUserService)

	for _, id := range []string{owner.UserID, other.UserID} {
		u, err := s.users.FindByID(s.T().Context(), id)
		s.Require().NoError(err)
		s.Equal(domain.UserStateEmailNotVerified, u.State)
	}
}

func (s *HandlerSuite) TestPasswordResetFlow() {
	created := s.register("p@x.com", "secret1")

	rec := s.do(http.MethodPost, "/user/password-reset", map[string]any{"email": "nobody@x.com"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	unknownBody := decode[any](s.T(), rec).Message

	rec = s.do(http.MethodPost, "/user/password-reset", map[string]any{"email": "p@x.com"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(unknownBody, decode[any](s.T(), rec).Message)

	user, err := s.users.FindByID(s.T().Context(), created.UserID)
	s.Require().NoError(err)
	s.Require().Len(user.ChangePassword, 1)

	rec = s.do(http.MethodPost, "/user/password-reset/confirm",
		map[string]any{"token": user.ChangePassword[0].Token, "password": "secret2"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "secret2"}, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestRouteNotFound() {
	rec := s.do(http.MethodGet, "/nope?x=1", nil, nil)
	s.requireFailure(rec, http.StatusNotFound, "Route not found: /nope?x=1", apperror.ClassRequest)
	s.Equal([]int{http.StatusNotFound}, s.storedCodes())
}

func (s *HandlerSuite) TestLogStoreFailureIsSwallowed() {
	s.logErrors.FailWith(errors.New("log store down"))

	rec := s.do(http.MethodPost, "/user/authenticate", map[string]any{"email": "p@x.com", "password": "x"}, nil)
	s.requireFailure(rec, http.StatusUnauthorized, "Invalid password", apperror.ClassUserService)
}

func (s *HandlerSuite) TestStoredRecordCarriesUser() {
	created := s.register("p@x.com", "secret1")
	ok, err := s.users.UpdateByID(s.T().Context(), created.UserID, repository.Update{"$set": bson.M{"state": domain.UserStateActive}})
	s.Require().NoError(err)
	s.Require().True(ok)

	rec := s.do(http.MethodPost, "/user/email-confirmation", nil, withToken(created.Token.JWT))
	s.requireFailure(rec, http.StatusConflict, "Email already confirmed", apperror.ClassUserService)

	records := s.logErrors.All()
	s.Require().Len(records, 1)
	s.Require().NotNil(records[0].UserID)
	s.Equal(created.UserID, records[0].UserID.Hex())
	s.Equal("/user/email-confirmation", records[0].Path)
	s.Equal(http.MethodPost, records[0].Method)
	s.Equal(apperror.ClassUserService, records[0].ClassError)
	s.NotEmpty(records[0].Stack)
}
