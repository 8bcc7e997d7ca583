package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"github.com/prperemyshlev/user-auth-service/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// PasswordHasher hashes a plaintext password at write time
type PasswordHasher func(password string) (string, error)

// BcryptHasher hashes with the given bcrypt cost
func BcryptHasher(cost int) PasswordHasher {
	return func(password string) (string, error) {
		return utils.HashPassword(password, cost)
	}
}

// PrepareUser applies write-time defaults to a new user: plaintext password
// replaced by its hash, default state (unknown states included), empty lists and timestamps. A failed
// hash is logged and stored as an empty hash, which never matches on login.
func PrepareUser(user *domain.User, hash PasswordHasher, logger *zap.Logger, now time.Time) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	hashed, err := hash(user.Password)
	if err != nil {
		logger.Error("Failed to hash password on user create",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err),
		)
		hashed = ""
	}
	user.Password = hashed

	if !user.State.Valid() {
		user.State = domain.UserStateEmailNotVerified
	}
	if user.JWTs == nil {
		user.JWTs = []domain.JWTEntry{}
	}
	if user.ChangePassword == nil {
		user.ChangePassword = []domain.UserToken{}
	}
	if user.EmailConfirmation == nil {
		user.EmailConfirmation = []domain.UserToken{}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}

// liveEntry matches an active, unexpired element of a token list
func liveEntry(key, token string, now time.Time) bson.M {
	return bson.M{
		"$elemMatch": bson.M{
			key:         token,
			"active":    true,
			"expiresAt": bson.M{"$gte": now},
		},
	}
}

// userRepository implements UserRepository on MongoDB
type userRepository struct {
	mongoStore[domain.User]
	hash   PasswordHasher
	logger *zap.Logger
	now    func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Mongo, hash PasswordHasher, logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoStore: newMongoStore[domain.User](db.Collection(database.UsersCollection)),
		hash:       hash,
		logger:     logger,
		now:        time.Now,
	}
}

// Create hashes the password and inserts the user
func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := *user
	PrepareUser(&doc, r.hash, r.logger, r.now())
	return r.mongoStore.Create(ctx, &doc)
}

func (r *userRepository) ComparePassword(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := r.FindOne(ctx, Filter{"email": email})
	if err != nil || user == nil {
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, nil
	}
	return user, nil
}

func (r *userRepository) AddJWT(ctx context.Context, id string, token domain.GeneratedToken, ip string) (bool, error) {
	now := r.now()
	entry := domain.JWTEntry{
		JWT:       token.JWT,
		CreatedAt: now,
		ExpiresAt: token.ExpiresIn,
		IP:        ip,
		Active:    true,
	}

	return r.UpdateByID(ctx, id, Update{
		"$push": bson.M{"JWTs": entry},
		"$set":  bson.M{"updatedAt": now},
	})
}

func (r *userRepository) FindByLiveJWT(ctx context.Context, id, token string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	return r.FindOne(ctx, Filter{
		"_id":  oid,
		"JWTs": liveEntry("jwt", token, r.now()),
	})
}

func (r *userRepository) DeactivateJWT(ctx context.Context, id, token string) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}

	res, err := r.coll.UpdateOne(ctx,
		Filter{"_id": oid, "JWTs": bson.M{"$elemMatch": bson.M{"jwt": token, "active": true}}},
		Update{"$set": bson.M{"JWTs.$.active": false, "updatedAt": r.now()}},
	)
	if err != nil {
		return false, handleError(err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *userRepository) SetPasswordResetToken(ctx context.Context, id, token string, expiresAt time.Time) (*domain.UserToken, error) {
	entry := domain.UserToken{Token: token, ExpiresAt: expiresAt, Active: true}

	ok, err := r.UpdateByID(ctx, id, Update{
		"$push": bson.M{"changePassword": entry},
		"$set":  bson.M{"updatedAt": r.now()},
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, handleError(errors.New("failed to create password reset token: user not found"))
	}
	return &entry, nil
}

func (r *userRepository) ExistsPasswordResetToken(ctx context.Context, token string) (bool, error) {
	return r.Exists(ctx, Filter{"changePassword": liveEntry("token", token, r.now())})
}

func (r *userRepository) ConsumePasswordResetToken(ctx context.Context, token, newPassword string) (bool, error) {
	hashed, err := r.hash(newPassword)
	if err != nil {
		return false, handleError(err)
	}

	now := r.now()
	res, err := r.coll.UpdateOne(ctx,
		Filter{"changePassword": liveEntry("token", token, now)},
		Update{"$set": bson.M{
			"changePassword.$.active": false,
			"password":                hashed,
			"updatedAt":               now,
		}},
	)
	if err != nil {
		return false, handleError(err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *userRepository) SetEmailConfirmationToken(ctx context.Context, id, token string, expiresAt time.Time) (bool, error) {
	ok, err := r.UpdateByID(ctx, id, Update{
		"$push": bson.M{"emailConfirmation": domain.UserToken{Token: token, ExpiresAt: expiresAt, Active: true}},
		"$set":  bson.M{"updatedAt": r.now()},
	})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, handleError(errors.New("failed to create email confirmation token: user not found"))
	}
	return true, nil
}

// ConsumeEmailConfirmationToken deactivates a live code owned by the user and,
// in the same write, activates the account. A blocked account only loses the
// code.
func (r *userRepository) ConsumeEmailConfirmationToken(ctx context.Context, id, token string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	now := r.now()
	consume := bson.M{"emailConfirmation.$.active": false, "updatedAt": now}
	activate := bson.M{"emailConfirmation.$.active": false, "updatedAt": now, "state": domain.UserStateActive}

	user, err := r.consumeCode(ctx,
		Filter{"_id": oid, "state": bson.M{"$ne": domain.UserStateBlocked}, "emailConfirmation": liveEntry("token", token, now)},
		Update{"$set": activate},
	)
	if err != nil || user != nil {
		return user, err
	}

	return r.consumeCode(ctx,
		Filter{"_id": oid, "state": domain.UserStateBlocked, "emailConfirmation": liveEntry("token", token, now)},
		Update{"$set": consume},
	)
}

func (r *userRepository) consumeCode(ctx context.Context, filter Filter, update Update) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, handleError(err)
	}
	return &user, nil
}
