package domain

import "time"

// GeneratedToken is returned to the caller when a JWT is issued
type GeneratedToken struct {
	JWT       string    `json:"jwt"`
	ExpiresIn time.Time `json:"expiresIn"`
}

// DigitToken is a short numeric code used for secondary verification
type DigitToken struct {
	Token     string    `json:"token"`
	ExpiresIn time.Time `json:"expiresIn"`
}

// DecodedSession is the result of resolving a bearer token against the allow-list
type DecodedSession struct {
	UserDecoded UserView `json:"userDecoded"`
	IP          string   `json:"ip"`
}
