package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogError is the persisted diagnostic record of a handled failure
type LogError struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Path       string              `json:"path" bson:"path"`
	Method     string              `json:"method" bson:"method"`
	Message    string              `json:"message" bson:"message"`
	Stack      string              `json:"stack" bson:"stack"`
	Code       int                 `json:"code" bson:"code"`
	UserID     *primitive.ObjectID `json:"user_id,omitempty" bson:"user_id,omitempty"`
	ClassError string              `json:"classError,omitempty" bson:"classError,omitempty"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
}

// ErrorsGroupedByCode is one row of the error dashboard aggregation
type ErrorsGroupedByCode struct {
	Code     int `json:"code" bson:"code"`
	Quantity int `json:"quantity" bson:"quantity"`
}
