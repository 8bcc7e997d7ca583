package utils

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/prperemyshlev/user-auth-service/internal/domain"
)

// DigitTokenTTL is how long a 6-digit code stays valid
const DigitTokenTTL = 30 * time.Minute

// GenerateDigitToken returns a zero-padded 6-digit code.
// math/rand is not a CSPRNG; the code is only a second factor for mailbox ownership.
func GenerateDigitToken() domain.DigitToken {
	return domain.DigitToken{
		Token:     fmt.Sprintf("%06d", rand.IntN(1_000_000)),
		ExpiresIn: time.Now().Add(DigitTokenTTL),
	}
}
