package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens minted by Sign when ttl is zero.
const DefaultTokenTTL = 15 * time.Minute

const userIDLocal = "user_id"

var ErrNoUser = errors.New("no authenticated user")

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

var nowFn = time.Now

// Sign mints an HS256 bearer token for userID. Tokens are normally issued by
// the identity provider; Sign exists for tooling and tests.
func Sign(secret, userID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := nowFn()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// UserID returns the user stored by JWTMiddleware.
func UserID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(userIDLocal).(string)
	if !ok || id == "" {
		return "", ErrNoUser
	}
	return id, nil
}
