package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/dto"
	"github.com/prperemyshlev/user-auth-service/internal/service"
)

// UserHandler handles registration, login and account e-mail flows
type UserHandler struct {
	userService service.UserService
	responder   *Responder
	errs        *ErrorResponder
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, responder *Responder, errs *ErrorResponder) *UserHandler {
	return &UserHandler{
		userService: userService,
		responder:   responder,
		errs:        errs,
	}
}

// Create handles user registration
// @Summary Register a new user
// @Tags user
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "Registration request"
// @Success 201 {object} dto.Response
// @Failure 409 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /user [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Respond(c, err)
		return
	}

	result, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, c.ClientIP())
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusCreated, "Created", result)
}

// Authenticate handles login
// @Summary Authenticate user
// @Tags user
// @Accept json
// @Produce json
// @Param request body dto.AuthenticateRequest true "Login request"
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /user/authenticate [post]
func (h *UserHandler) Authenticate(c *gin.Context) {
	var req dto.AuthenticateRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Respond(c, err)
		return
	}

	result, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Authenticate", result)
}

// ValidateJWT echoes the session resolved by the auth middleware
// @Summary Validate a session token
// @Tags user
// @Produce json
// @Param x-access-token header string false "Session token"
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Failure 473 {object} dto.Response
// @Router /user/authenticate/{jwt} [get]
func (h *UserHandler) ValidateJWT(c *gin.Context) {
	session, _ := sessionFrom(c)
	h.responder.Success(c, http.StatusOK, "Valid JWT", session.UserDecoded)
}

// Logout revokes the token of the current request
// @Summary Logout
// @Tags user
// @Produce json
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Router /user/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	session, _ := sessionFrom(c)

	if err := h.userService.Logout(c.Request.Context(), session.UserDecoded.ID, tokenFrom(c)); err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Logged out", nil)
}

// RequestEmailConfirmation mails a 6-digit code to the current user
// @Summary Send e-mail confirmation code
// @Tags user
// @Produce json
// @Success 200 {object} dto.Response
// @Failure 409 {object} dto.Response
// @Router /user/email-confirmation [post]
func (h *UserHandler) RequestEmailConfirmation(c *gin.Context) {
	session, _ := sessionFrom(c)

	expiresIn, err := h.userService.RequestEmailConfirmation(c.Request.Context(), session.UserDecoded.ID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Email confirmation sent", dto.EmailConfirmationResponse{ExpiresIn: expiresIn})
}

// ConfirmEmail consumes a confirmation code issued to the session's user
// @Summary Confirm e-mail
// @Tags user
// @Accept json
// @Produce json
// @Param x-access-token header string true "JWT"
// @Param request body dto.TokenRequest true "Confirmation code"
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Router /user/email-confirmation/confirm [post]
func (h *UserHandler) ConfirmEmail(c *gin.Context) {
	var req dto.TokenRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Respond(c, err)
		return
	}

	session, _ := sessionFrom(c)
	view, err := h.userService.ConfirmEmail(c.Request.Context(), session.UserDecoded.ID, req.Token)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Email confirmed", view)
}

// RequestPasswordReset mails a recovery token when the e-mail is registered
// @Summary Request password reset
// @Tags user
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "Account e-mail"
// @Success 200 {object} dto.Response
// @Router /user/password-reset [post]
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.EmailRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Respond(c, err)
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "If the email is registered a recovery token was sent", nil)
}

// ResetPassword sets a new password using a recovery token
// @Summary Reset password
// @Tags user
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Recovery token and new password"
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Router /user/password-reset/confirm [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		h.errs.Respond(c, err)
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Password changed", nil)
}
