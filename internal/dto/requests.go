package dto

// CreateUserRequest represents a registration request.
// Nil fields were absent from the body.
type CreateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// AuthenticateRequest represents a login request
type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest carries a single-use code
type TokenRequest struct {
	Token string `json:"token"`
}

// EmailRequest starts password recovery
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes password recovery
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// LogErrorQuery filters the error listings
type LogErrorQuery struct {
	Minutes int    `form:"minutes,default=1"`
	UserID  string `form:"user_id"`
}
