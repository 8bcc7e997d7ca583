package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/config"
	"github.com/prperemyshlev/user-auth-service/internal/dto"
)

const clientAppVersion = "1.0.0"

// Responder writes the response envelope
type Responder struct {
	versions dto.Versions
}

// NewResponder creates a responder that reports the configured versions
func NewResponder(cfg config.VersionConfig) *Responder {
	return &Responder{
		versions: dto.Versions{
			Version: dto.ClientVersions{
				API:     cfg.API,
				Web:     clientAppVersion,
				Android: clientAppVersion,
				IOS:     clientAppVersion,
			},
			Mod: cfg.Mod,
		},
	}
}

func (r *Responder) envelope(c *gin.Context, code int, message string) dto.Response {
	return dto.Response{
		Code:     code,
		Message:  message,
		URL:      requestURL(c),
		Method:   c.Request.Method,
		Versions: r.versions,
	}
}

// Success writes a successful envelope with optional data
func (r *Responder) Success(c *gin.Context, code int, message string, data any) {
	resp := r.envelope(c, code, message)
	resp.Data = data
	c.JSON(code, resp)
}

// Fail writes an error envelope and aborts the handler chain
func (r *Responder) Fail(c *gin.Context, code int, message string, errResp *dto.ErrorResponse) {
	resp := r.envelope(c, code, message)
	resp.Error = errResp
	c.AbortWithStatusJSON(code, resp)
}

// requestURL rebuilds the absolute URL the client called
func requestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
