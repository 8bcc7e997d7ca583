package apperror

import (
	"errors"
	"net/http"
	"runtime/debug"
)

// Classification is the outcome of mapping an error for the response pipeline
type Classification struct {
	Code        int
	Message     string
	ClassError  string
	Description string
	Stack       string
}

// Internal reports whether the failure must be hidden from the client
func (c Classification) Internal() bool {
	return c.Code >= http.StatusInternalServerError
}

// Classify maps err to its status code and class. It holds no state.
func Classify(err error) Classification {
	c := classify(err)
	c.Description = describe(c.ClassError, c.Message)
	c.Stack = stackOf(err)
	return c
}

// classify walks the wrap chain and lets the outermost known error decide
func classify(err error) Classification {
	if err == nil {
		return Classification{Code: http.StatusInternalServerError, Message: "unknown error", ClassError: ClassNone}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		switch t := e.(type) {
		case *StoreError:
			if c, ok := classifyStore(t); ok {
				return c
			}
		case *Error:
			code := t.Code
			if code == 0 {
				code = http.StatusInternalServerError
			}
			return Classification{Code: code, Message: t.Message, ClassError: t.ClassError}
		case *TokenError:
			return Classification{Code: http.StatusUnauthorized, Message: t.Message, ClassError: ClassJSONWebToken}
		}
	}

	return Classification{Code: http.StatusInternalServerError, Message: err.Error(), ClassError: ClassNone}
}

func classifyStore(err *StoreError) (Classification, bool) {
	switch err.Kind {
	case StoreDuplicate:
		return Classification{Code: http.StatusConflict, Message: err.Message, ClassError: ClassDatabaseValidation}, true
	case StoreValidation:
		return Classification{Code: http.StatusUnprocessableEntity, Message: err.Message, ClassError: ClassDatabaseValidation}, true
	case StoreUnknownClient:
		return Classification{Code: http.StatusBadRequest, Message: err.Message, ClassError: ClassDatabaseUnknownClient}, true
	case StoreCast:
		return Classification{Code: http.StatusNotAcceptable, Message: err.Message, ClassError: ClassDatabaseUnknownClient}, true
	}
	return Classification{}, false
}

type stackTracer interface {
	StackTrace() string
}

func stackOf(err error) string {
	var st stackTracer
	if errors.As(err, &st) && st.StackTrace() != "" {
		return st.StackTrace()
	}
	return string(debug.Stack())
}
