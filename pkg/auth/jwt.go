package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shashiranjanraj/meetup/config"
	"golang.org/x/crypto/bcrypt"
)

// issuedAtSkew backdates iat so clients with a slightly fast clock do not
// reject a fresh token.
const issuedAtSkew = 30 * time.Second

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the token payload. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string { return c.Subject }

func secret() []byte {
	return []byte(config.JWTSecret())
}

// GenerateToken signs an HS256 token for userID that expires after
// config.TokenTTL.
func GenerateToken(userID string) (string, error) {
	return generateAt(userID, time.Now(), config.TokenTTL())
}

func generateAt(userID string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now.Add(-issuedAtSkew)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ValidateToken parses t and checks signature, algorithm and expiry.
func ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
