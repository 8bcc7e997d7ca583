package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/dto"
	"github.com/prperemyshlev/user-auth-service/internal/service"
	"github.com/prperemyshlev/user-auth-service/pkg/observability"
	"go.uber.org/zap"
)

// internalErrorMessage replaces the message of every 5xx response
const internalErrorMessage = "InternalError"

// ErrorResponder classifies a failure, records it and writes the error envelope
type ErrorResponder struct {
	responder *Responder
	logErrors service.LogErrorService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewErrorResponder creates a new error responder
func NewErrorResponder(
	responder *Responder,
	logErrors service.LogErrorService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ErrorResponder {
	return &ErrorResponder{
		responder: responder,
		logErrors: logErrors,
		metrics:   metrics,
		logger:    logger,
	}
}

// Respond writes the envelope for err. Failures with code >= 400 are stored
// first; a failed store is logged and never changes the response.
func (e *ErrorResponder) Respond(c *gin.Context, err error) {
	cl := apperror.Classify(err)
	ctx := c.Request.Context()

	var logID string
	if cl.Code >= http.StatusBadRequest {
		logID = e.persist(c, cl)
	}
	e.metrics.RecordHTTPError(ctx, cl.Code, cl.ClassError)

	if cl.Internal() {
		e.logger.Error("request failed",
			zap.Int("code", cl.Code),
			zap.String("class_error", cl.ClassError),
			zap.String("path", c.Request.URL.Path),
			zap.String("log_id", logID),
			zap.Error(err),
		)
		e.responder.Fail(c, cl.Code, internalErrorMessage, &dto.ErrorResponse{
			ClassError:  internalErrorMessage,
			Description: internalErrorMessage,
			ID:          logID,
		})
		return
	}

	e.responder.Fail(c, cl.Code, cl.Message, &dto.ErrorResponse{
		ClassError:  cl.ClassError,
		Description: cl.Description,
	})
}

func (e *ErrorResponder) persist(c *gin.Context, cl apperror.Classification) string {
	input := service.LogErrorInput{
		Path:       c.Request.URL.Path,
		Method:     c.Request.Method,
		Message:    cl.Message,
		Stack:      cl.Stack,
		Code:       cl.Code,
		ClassError: cl.ClassError,
	}
	if session, ok := sessionFrom(c); ok {
		input.UserID = session.UserDecoded.ID
	}

	id, err := e.logErrors.Create(context.WithoutCancel(c.Request.Context()), input)
	if err != nil {
		e.logger.Error("failed to store log error",
			zap.Int("code", cl.Code),
			zap.String("path", input.Path),
			zap.Error(err),
		)
		return ""
	}
	return id
}

// NoRoute answers unknown routes with a classified 404
func (e *ErrorResponder) NoRoute(c *gin.Context) {
	e.Respond(c, apperror.New(fmt.Sprintf("Route not found: %s", c.Request.URL.RequestURI()), http.StatusNotFound, apperror.ClassRequest))
}

// fieldMessages maps body fields with a wrong JSON type to their client message
var fieldMessages = map[string]string{
	"email":    "Invalid email",
	"password": "Invalid password",
	"name":     "Invalid name",
	"token":    "Invalid token",
}

// bindJSON decodes the body into dest. An empty body leaves dest untouched.
func bindJSON(c *gin.Context, dest any) error {
	err := c.ShouldBindJSON(dest)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if msg, ok := fieldMessages[typeErr.Field]; ok {
			return apperror.New(msg, http.StatusUnprocessableEntity, apperror.ClassUserService)
		}
		return apperror.New(fmt.Sprintf("Invalid field %s", typeErr.Field), http.StatusUnprocessableEntity, apperror.ClassRequest)
	}
	return apperror.Wrap(err, "Invalid JSON body", http.StatusBadRequest, apperror.ClassRequest)
}
