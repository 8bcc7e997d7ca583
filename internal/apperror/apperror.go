// Package apperror holds the error values raised by the service layers and the
// classifier that turns any error into an HTTP code and a class name.
package apperror

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Class names reported in the error envelope and stored on LogError records
const (
	ClassDatabaseValidation    = "DatabaseValidationError"
	ClassDatabaseUnknownClient = "DatabaseUnknownClientError"
	ClassDatabaseInternal      = "DatabaseInternalError"
	ClassJSONWebToken          = "JsonWebTokenError"
	ClassAuthServiceDecode     = "AuthServiceDecodeError"
	ClassAuth                  = "AuthClass"
	ClassUserService           = "UserService"
	ClassLogErrorService       = "LogErrorService"
	ClassRateLimit             = "RateLimit"
	ClassRequest               = "RequestError"
	ClassNone                  = "NO class error"
)

// StatusBlocked is the non-standard status used for blocked accounts
const StatusBlocked = 473

// Error is a failure whose code and class were decided where it was raised
type Error struct {
	Code       int
	Message    string
	ClassError string
	Err        error
	stack      string
}

// New creates a classified error
func New(message string, code int, classError string) *Error {
	return &Error{Code: code, Message: message, ClassError: classError, stack: string(debug.Stack())}
}

// Wrap creates a classified error that keeps the cause for errors.Is/As
func Wrap(err error, message string, code int, classError string) *Error {
	return &Error{Code: code, Message: message, ClassError: classError, Err: err, stack: string(debug.Stack())}
}

// StackTrace returns the goroutine stack captured when the error was created
func (e *Error) StackTrace() string {
	return e.stack
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Description renders "<classError>: <message>"
func (e *Error) Description() string {
	return describe(e.ClassError, e.Message)
}

// NewDecodeError is raised by the session manager when a token does not resolve
// to a live session
func NewDecodeError(message string, code int) *Error {
	return New(message, code, ClassAuthServiceDecode)
}

// StoreErrorKind tells the classifier which storage failure occurred
type StoreErrorKind int

const (
	StoreDuplicate StoreErrorKind = iota + 1
	StoreValidation
	StoreUnknownClient
	StoreCast
)

// StoreError is raised by the persistence layer for client-caused failures
type StoreError struct {
	Kind    StoreErrorKind
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a storage error of the given kind
func NewStoreError(kind StoreErrorKind, err error, format string, args ...any) *StoreError {
	return &StoreError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// TokenError is a JWT verification failure (malformed, bad signature, expired)
type TokenError struct {
	Message string
	Err     error
}

func (e *TokenError) Error() string {
	return e.Message
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// IsClass reports whether err is a classified error of the given class
func IsClass(err error, classError string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.ClassError == classError
}

func describe(classError, message string) string {
	return classError + ": " + message
}
