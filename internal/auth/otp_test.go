package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9', "OTP must be numeric, got %q", otp)
		}
		seen[otp] = true
	}
	// 20 draws from a million values colliding down to one would mean a
	// broken generator.
	assert.Greater(t, len(seen), 1)
}

func TestValidateOTP(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	valid := now.Add(10 * time.Minute)
	expired := now.Add(-time.Minute)

	tests := []struct {
		name      string
		submitted string
		stored    string
		expiresAt *time.Time
		want      bool
	}{
		{"matching and fresh", "123456", "123456", &valid, true},
		{"expires exactly now", "123456", "123456", &now, true},
		{"wrong code", "111111", "123456", &valid, false},
		{"expired code", "123456", "123456", &expired, false},
		{"nothing stored", "123456", "", &valid, false},
		{"no expiry recorded", "123456", "123456", nil, false},
		{"empty submission", "", "", &valid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateOTP(tt.submitted, tt.stored, tt.expiresAt, now))
		})
	}
}
