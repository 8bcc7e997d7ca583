package repotest

import (
	"context"
	"time"

	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Users is an in-memory repository.UserRepository with a unique email index
type Users struct {
	*memStore[domain.User]
	hash   repository.PasswordHasher
	logger *zap.Logger
	// Now is the clock used for liveness checks
	Now func() time.Time
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers creates an empty store that hashes with the minimum bcrypt cost
func NewUsers() *Users {
	return &Users{
		memStore: &memStore[domain.User]{},
		hash:     repository.BcryptHasher(bcrypt.MinCost),
		logger:   zap.NewNop(),
		Now:      time.Now,
	}
}

func (u *Users) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := *user
	repository.PrepareUser(&doc, u.hash, u.logger, u.Now())

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail != nil {
		return nil, u.fail
	}
	idx, err := u.indexes(repository.Filter{"email": doc.Email}, 1)
	if err != nil {
		return nil, err
	}
	if len(idx) > 0 {
		return nil, apperror.NewStoreError(apperror.StoreDuplicate, repository.ErrDuplicateEmail, "Duplicate value: email")
	}
	return u.insert(&doc)
}

// mutate loads the first matching user, applies fn and stores the result
// when fn reports a change
func (u *Users) mutate(filter repository.Filter, fn func(*domain.User) bool) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail != nil {
		return nil, u.fail
	}

	idx, err := u.indexes(filter, 1)
	if err != nil || len(idx) == 0 {
		return nil, err
	}

	user, err := decode[domain.User](u.docs[idx[0]])
	if err != nil {
		return nil, err
	}
	if !fn(user) {
		return nil, nil
	}
	user.UpdatedAt = u.Now()

	m, err := toM(user)
	if err != nil {
		return nil, err
	}
	u.docs[idx[0]] = m
	return user, nil
}

func liveEntry(key, token string, now time.Time) bson.M {
	return bson.M{"$elemMatch": bson.M{key: token, "active": true, "expiresAt": bson.M{"$gte": now}}}
}

func (u *Users) ComparePassword(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := u.FindOne(ctx, repository.Filter{"email": email})
	if err != nil || user == nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, nil
	}
	return user, nil
}

func (u *Users) AddJWT(ctx context.Context, id string, token domain.GeneratedToken, ip string) (bool, error) {
	return u.UpdateByID(ctx, id, repository.Update{
		"$push": bson.M{"JWTs": domain.JWTEntry{
			JWT:       token.JWT,
			CreatedAt: u.Now(),
			ExpiresAt: token.ExpiresIn,
			IP:        ip,
			Active:    true,
		}},
	})
}

func (u *Users) FindByLiveJWT(ctx context.Context, id, token string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, nil
	}
	return u.FindOne(ctx, repository.Filter{"_id": oid, "JWTs": liveEntry("jwt", token, u.Now())})
}

func (u *Users) DeactivateJWT(_ context.Context, id, token string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	user, err := u.mutate(repository.Filter{"_id": oid}, func(user *domain.User) bool {
		for i := range user.JWTs {
			if user.JWTs[i].JWT == token && user.JWTs[i].Active {
				user.JWTs[i].Active = false
				return true
			}
		}
		return false
	})
	return user != nil, err
}

func (u *Users) SetPasswordResetToken(ctx context.Context, id, token string, expiresAt time.Time) (*domain.UserToken, error) {
	entry := domain.UserToken{Token: token, ExpiresAt: expiresAt, Active: true}
	ok, err := u.UpdateByID(ctx, id, repository.Update{"$push": bson.M{"changePassword": entry}})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New("failed to create password reset token: user not found", 500, apperror.ClassDatabaseInternal)
	}
	return &entry, nil
}

func (u *Users) ExistsPasswordResetToken(ctx context.Context, token string) (bool, error) {
	return u.Exists(ctx, repository.Filter{"changePassword": liveEntry("token", token, u.Now())})
}

func (u *Users) ConsumePasswordResetToken(_ context.Context, token, newPassword string) (bool, error) {
	hashed, err := u.hash(newPassword)
	if err != nil {
		return false, err
	}
	now := u.Now()
	user, err := u.mutate(repository.Filter{"changePassword": liveEntry("token", token, now)}, func(user *domain.User) bool {
		for i := range user.ChangePassword {
			if user.ChangePassword[i].Token == token && user.ChangePassword[i].IsLive(now) {
				user.ChangePassword[i].Active = false
				user.Password = hashed
				return true
			}
		}
		return false
	})
	return user != nil, err
}

func (u *Users) SetEmailConfirmationToken(ctx context.Context, id, token string, expiresAt time.Time) (bool, error) {
	ok, err := u.UpdateByID(ctx, id, repository.Update{
		"$push": bson.M{"emailConfirmation": domain.UserToken{Token: token, ExpiresAt: expiresAt, Active: true}},
	})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperror.New("failed to create email confirmation token: user not found", 500, apperror.ClassDatabaseInternal)
	}
	return true, nil
}

func (u *Users) ConsumeEmailConfirmationToken(_ context.Context, id, token string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, nil
	}
	now := u.Now()
	return u.mutate(repository.Filter{"_id": oid, "emailConfirmation": liveEntry("token", token, now)}, func(user *domain.User) bool {
		for i := range user.EmailConfirmation {
			if user.EmailConfirmation[i].Token == token && user.EmailConfirmation[i].IsLive(now) {
				user.EmailConfirmation[i].Active = false
				if user.State != domain.UserStateBlocked {
					user.State = domain.UserStateActive
				}
				return true
			}
		}
		return false
	})
}
