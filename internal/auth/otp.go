// internal/auth/otp.go
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPTTL is how long a recovery one-time password stays valid.
const OTPTTL = 15 * time.Minute

// GenerateOTP returns a random 6-digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidateOTP reports whether the submitted code matches the stored one and
// has not expired.
func ValidateOTP(submitted, stored string, expiresAt *time.Time, now time.Time) bool {
	if submitted == "" || stored == "" || expiresAt == nil {
		return false
	}
	if submitted != stored {
		return false
	}
	return !now.After(*expiresAt)
}
