package dto

import "time"

// Response is the envelope every endpoint answers with
type Response struct {
	Code     int            `json:"code"`
	Message  string         `json:"message"`
	URL      string         `json:"url"`
	Method   string         `json:"method"`
	Error    *ErrorResponse `json:"error,omitempty"`
	Data     any            `json:"data,omitempty"`
	Versions Versions       `json:"versions"`
}

// ErrorResponse describes a failure. ID is the stored log record of a 500.
type ErrorResponse struct {
	ClassError  string `json:"classError"`
	Description string `json:"description"`
	ID          string `json:"id,omitempty"`
}

// Versions reports the API version and the deployment mode
type Versions struct {
	Version ClientVersions `json:"version"`
	Mod     string         `json:"mod"`
}

// ClientVersions lists the API and client application versions
type ClientVersions struct {
	API     string `json:"api"`
	Web     string `json:"web"`
	Android string `json:"android"`
	IOS     string `json:"ios"`
}

// EmailConfirmationResponse is returned when a confirmation code is sent
type EmailConfirmationResponse struct {
	ExpiresIn time.Time `json:"expiresIn"`
}
