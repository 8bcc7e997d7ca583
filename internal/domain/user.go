package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserState is the account state checked on every authenticated request
type UserState string

const (
	UserStateActive           UserState = "active"
	UserStateInactive         UserState = "inactive"
	UserStateBlocked          UserState = "blocked"
	UserStateEmailNotVerified UserState = "emailNotVerified"
)

// Valid reports whether s is one of the known states
func (s UserState) Valid() bool {
	switch s {
	case UserStateActive, UserStateInactive, UserStateBlocked, UserStateEmailNotVerified:
		return true
	}
	return false
}

// JWTEntry is one allow-list record stored on the user
type JWTEntry struct {
	JWT       string    `json:"jwt" bson:"jwt"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	IP        string    `json:"ip" bson:"ip"`
	Active    bool      `json:"active" bson:"active"`
}

// UserToken is a single-use token (password recovery, email confirmation)
type UserToken struct {
	Token     string    `json:"token" bson:"token"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	Active    bool      `json:"active" bson:"active"`
}

// User represents a user in the system
type User struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name              string             `json:"name,omitempty" bson:"name,omitempty"`
	Email             string             `json:"email" bson:"email"`
	Password          string             `json:"-" bson:"password"`
	State             UserState          `json:"state" bson:"state"`
	JWTs              []JWTEntry         `json:"JWTs" bson:"JWTs"`
	ChangePassword    []UserToken        `json:"changePassword" bson:"changePassword"`
	EmailConfirmation []UserToken        `json:"emailConfirmation" bson:"emailConfirmation"`
	ClientID          string             `json:"clientId,omitempty" bson:"clientId,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserView is the externally safe projection of a user
type UserView struct {
	ID    string    `json:"id"`
	Name  string    `json:"name,omitempty"`
	State UserState `json:"state"`
}

// View strips credentials and contact data from the user
func (u *User) View() UserView {
	return UserView{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		State: u.State,
	}
}

// JWTIP returns the IP recorded for the given allow-list token
func (u *User) JWTIP(token string) (string, bool) {
	for _, entry := range u.JWTs {
		if entry.JWT == token && entry.IP != "" {
			return entry.IP, true
		}
	}
	return "", false
}

// IsLive reports whether a single-use token can still be used at t
func (t UserToken) IsLive(at time.Time) bool {
	return t.Active && !t.ExpiresAt.Before(at)
}
