package auth

import (
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the given plain-text password using bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a bcrypt-hashed password with its possible plaintext equivalent.
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Claims represents the JWT claims carried in the ThreatScan session cookie.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionDuration is how long a login stays valid.
const SessionDuration = 24 * time.Hour

var (
	secretMu sync.RWMutex
	secret   string
)

// SetSecret overrides the signing secret, normally with the configured value.
func SetSecret(s string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = s
}

// GenerateToken generates a signed JWT for the given user.
func GenerateToken(userID uint, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret()))
}

// ValidateToken parses and validates the given JWT string.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret()), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// jwtSecret returns the secret key used to sign session tokens. It prefers
// the value applied through SetSecret, then the THREATSCAN_JWT_SECRET
// environment variable, falling back to a development default.
func jwtSecret() string {
	secretMu.RLock()
	s := secret
	secretMu.RUnlock()
	if s != "" {
		return s
	}
	if env := os.Getenv("THREATSCAN_JWT_SECRET"); env != "" {
		return env
	}
	return "threatscan-dev-secret"
}
