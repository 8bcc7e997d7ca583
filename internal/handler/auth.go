package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/service"
)

// TokenHeader carries the session token
const TokenHeader = "x-access-token"

const (
	sessionKey = "session"
	tokenKey   = "token"
)

// AuthMiddleware resolves the session token and stores the session in the context.
// The token comes from the x-access-token header, or the :jwt path parameter.
func AuthMiddleware(authService service.AuthService, errs *ErrorResponder, checkIP bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token == "" {
			token = c.Param("jwt")
		}

		session, err := authService.DecodeJWT(c.Request.Context(), token, requestURL(c))
		if err == nil && checkIP && session.IP != c.ClientIP() {
			err = apperror.New("Invalid IP", http.StatusUnauthorized, apperror.ClassAuth)
		}
		if err != nil {
			errs.Respond(c, authFailure(err))
			return
		}

		c.Set(sessionKey, session)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// authFailure reports every client-side failure that did not come from the
// session lookup as a 401 of the auth class
func authFailure(err error) error {
	if apperror.IsClass(err, apperror.ClassAuthServiceDecode) || apperror.IsClass(err, apperror.ClassAuth) {
		return err
	}
	cl := apperror.Classify(err)
	if cl.Internal() {
		return err
	}
	return apperror.Wrap(err, cl.Message, http.StatusUnauthorized, apperror.ClassAuth)
}

func sessionFrom(c *gin.Context) (*domain.DecodedSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*domain.DecodedSession)
	return session, ok
}

func tokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}
