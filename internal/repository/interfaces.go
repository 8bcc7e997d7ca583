package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
)

// Filter selects documents
type Filter = bson.M

// Update is a MongoDB update document ($set, $push, ...)
type Update = bson.M

// Store defines the operations every collection supports.
// FindOne and FindByID return nil, nil when nothing matches.
type Store[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	FindOne(ctx context.Context, filter Filter) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
	UpdateByID(ctx context.Context, id string, update Update) (bool, error)
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	Exists(ctx context.Context, filter Filter) (bool, error)
}

// UserRepository defines methods for user operations
type UserRepository interface {
	Store[domain.User]

	// ComparePassword returns the user only when email exists and the password matches
	ComparePassword(ctx context.Context, email, password string) (*domain.User, error)
	AddJWT(ctx context.Context, id string, token domain.GeneratedToken, ip string) (bool, error)
	// FindByLiveJWT matches the user and a live allow-list entry in a single query
	FindByLiveJWT(ctx context.Context, id, token string) (*domain.User, error)
	DeactivateJWT(ctx context.Context, id, token string) (bool, error)

	SetPasswordResetToken(ctx context.Context, id, token string, expiresAt time.Time) (*domain.UserToken, error)
	// ExistsPasswordResetToken reports whether a live reset token exists
	ExistsPasswordResetToken(ctx context.Context, token string) (bool, error)
	// ConsumePasswordResetToken deactivates a live token and stores the new password hash
	ConsumePasswordResetToken(ctx context.Context, token, newPassword string) (bool, error)

	SetEmailConfirmationToken(ctx context.Context, id, token string, expiresAt time.Time) (bool, error)
	// ConsumeEmailConfirmationToken deactivates a live code of user id and
	// activates the user unless blocked. Returns nil, nil when no such code exists.
	ConsumeEmailConfirmationToken(ctx context.Context, id, token string) (*domain.User, error)
}

// LogErrorRepository defines methods for error log operations
type LogErrorRepository interface {
	Store[domain.LogError]

	GroupByCode(ctx context.Context, filter Filter) ([]domain.ErrorsGroupedByCode, error)
}
