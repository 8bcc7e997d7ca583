package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/dto"
	"github.com/prperemyshlev/user-auth-service/internal/service"
)

// LogErrorHandler serves the error dashboard listings
type LogErrorHandler struct {
	logErrorService service.LogErrorService
	responder       *Responder
	errs            *ErrorResponder
}

// NewLogErrorHandler creates a new log error handler
func NewLogErrorHandler(logErrorService service.LogErrorService, responder *Responder, errs *ErrorResponder) *LogErrorHandler {
	return &LogErrorHandler{
		logErrorService: logErrorService,
		responder:       responder,
		errs:            errs,
	}
}

func (h *LogErrorHandler) bindQuery(c *gin.Context) (dto.LogErrorQuery, error) {
	var q dto.LogErrorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, apperror.Wrap(err, "invalid timeInMinutes", http.StatusUnprocessableEntity, apperror.ClassLogErrorService)
	}
	return q, nil
}

// List returns the stored failures of the last minutes
// @Summary List log errors
// @Tags log-errors
// @Produce json
// @Param minutes query int false "Window in minutes" default(1)
// @Param user_id query string false "Only failures of this user"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /log-errors [get]
func (h *LogErrorHandler) List(c *gin.Context) {
	q, err := h.bindQuery(c)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	records, err := h.logErrorService.List(c.Request.Context(), q.Minutes, q.UserID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Log errors", records)
}

// ListCodes counts the stored failures of the last minutes per status code
// @Summary Count log errors per code
// @Tags log-errors
// @Produce json
// @Param minutes query int false "Window in minutes" default(1)
// @Param user_id query string false "Only failures of this user"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /log-errors/codes [get]
func (h *LogErrorHandler) ListCodes(c *gin.Context) {
	q, err := h.bindQuery(c)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	groups, err := h.logErrorService.ListCodes(c.Request.Context(), q.Minutes, q.UserID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.responder.Success(c, http.StatusOK, "Log error codes", groups)
}
