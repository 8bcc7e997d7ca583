package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Common repository errors
var (
	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrInvalidID is returned when an id is not a valid ObjectID
	ErrInvalidID = errors.New("invalid object id")
)

// documentValidationFailure is the server code for a $jsonSchema violation
const documentValidationFailure = 121

// handleError converts driver errors into classified storage errors
func handleError(err error) error {
	if err == nil {
		return nil
	}

	var storeErr *apperror.StoreError
	var appErr *apperror.Error
	if errors.As(err, &storeErr) || errors.As(err, &appErr) {
		return err
	}

	if mongo.IsDuplicateKeyError(err) {
		field := duplicateField(err)
		cause := err
		if field == "email" {
			cause = ErrDuplicateEmail
		}
		return apperror.NewStoreError(apperror.StoreDuplicate, cause, "Duplicate value: %s", field)
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == documentValidationFailure {
				return apperror.NewStoreError(apperror.StoreValidation, err, "Validation error: %s", we.Message)
			}
		}
	}

	if errors.Is(err, primitive.ErrInvalidHex) {
		return apperror.NewStoreError(apperror.StoreCast, err, "Cast error: %s", err.Error())
	}

	if errors.Is(err, mongo.ErrNilDocument) || errors.Is(err, mongo.ErrEmptySlice) || isMarshalError(err) {
		return apperror.NewStoreError(apperror.StoreUnknownClient, err, "Invalid document: %s", err.Error())
	}

	return apperror.Wrap(err, fmt.Sprintf("Unexpected internal error: %s", err.Error()),
		500, apperror.ClassDatabaseInternal)
}

// duplicateField extracts the key name from "... index: email_1 dup key: ..."
func duplicateField(err error) string {
	_, rest, ok := strings.Cut(err.Error(), "index: ")
	if !ok {
		return "unknown"
	}
	index, _, _ := strings.Cut(rest, " ")
	if i := strings.LastIndex(index, "_"); i > 0 {
		index = index[:i]
	}
	return index
}

func isMarshalError(err error) bool {
	var mErr mongo.MarshalError
	return errors.As(err, &mErr)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NewStoreError(apperror.StoreCast, ErrInvalidID,
			"The value %s is not valid for the field _id", id)
	}
	return oid, nil
}

// byID is the filter for a single document
func byID(oid primitive.ObjectID) bson.M {
	return bson.M{"_id": oid}
}
