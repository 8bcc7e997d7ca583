package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups the handlers and middleware mounted on the router
type Routes struct {
	Users     *UserHandler
	LogErrors *LogErrorHandler
	Errors    *ErrorResponder
	Auth      gin.HandlerFunc
	// RateLimit guards the /user routes; nil disables it
	RateLimit gin.HandlerFunc
}

// Register mounts the API routes and the 404 fallback
func (r Routes) Register(router *gin.Engine) {
	user := router.Group("/user")
	if r.RateLimit != nil {
		user.Use(r.RateLimit)
	}
	{
		user.POST("", r.Users.Create)
		user.POST("/authenticate", r.Users.Authenticate)
		user.GET("/authenticate", r.Auth, r.Users.ValidateJWT)
		user.GET("/authenticate/:jwt", r.Auth, r.Users.ValidateJWT)
		user.POST("/logout", r.Auth, r.Users.Logout)
		user.POST("/email-confirmation", r.Auth, r.Users.RequestEmailConfirmation)
		user.POST("/email-confirmation/confirm", r.Auth, r.Users.ConfirmEmail)
		user.POST("/password-reset", r.Users.RequestPasswordReset)
		user.POST("/password-reset/confirm", r.Users.ResetPassword)
	}

	logErrors := router.Group("/log-errors", r.Auth)
	{
		logErrors.GET("", r.LogErrors.List)
		logErrors.GET("/codes", r.LogErrors.ListCodes)
	}

	router.NoRoute(r.Errors.NoRoute)
}
