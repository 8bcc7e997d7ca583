package repository

import (
	"github.com/prperemyshlev/user-auth-service/pkg/database"
	"go.uber.org/zap"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	LogError LogErrorRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Mongo, hash PasswordHasher, logger *zap.Logger) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db, hash, logger),
		LogError: NewLogErrorRepository(db),
	}
}
