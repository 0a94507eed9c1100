// internal/auth/auth.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	UserID string `json:"userID"`
	Mobile string `json:"mobile"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// JwtSecret and the token lifetime are installed from config at startup.
var (
	JwtSecret  []byte
	expiration = 24 * time.Hour
)

func Configure(secret string, tokenLifetime time.Duration) {
	JwtSecret = []byte(secret)
	if tokenLifetime > 0 {
		expiration = tokenLifetime
	}
}

func GenerateJWT(userID, mobile, role string) (string, error) {
	expirationTime := time.Now().Add(expiration)
	claims := &JWTClaims{
		UserID: userID,
		Mobile: mobile,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtSecret)
}
