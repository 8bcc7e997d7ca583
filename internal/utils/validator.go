package utils

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID validates that a string is a 24 character hex ObjectID
var ObjectID = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !primitive.IsValidObjectID(s) {
		return errors.New("must be a valid object id")
	}
	return nil
})

// ValidateEmail validates an email address format
func ValidateEmail(email string) bool {
	return validation.Validate(email, validation.Required, is.Email) == nil
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
