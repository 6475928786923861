package auth

import (
	"crypto/rsa"
	"errors"
	"os"
	"strings"

	"video-service/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies RS256 tokens. Admin routes only need a valid
// token to be present; there is no role model.
type JWTVerifier struct {
	pub *rsa.PublicKey
}

func NewJWTVerifier(pubPath string) (*JWTVerifier, error) {
	b, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, err
	}
	return &JWTVerifier{pub: pub}, nil
}

func (j *JWTVerifier) VerifyToken(token string) error {
	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.pub, nil
	})
	if err != nil {
		return err
	}
	if !t.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// Middleware rejects admin requests without a valid bearer token.
func Middleware(v *JWTVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			return utils.JSONError(c, fiber.StatusUnauthorized, "missing auth")
		}
		token = strings.TrimPrefix(token, "Bearer ")
		if err := v.VerifyToken(token); err != nil {
			return utils.JSONError(c, fiber.StatusUnauthorized, "invalid token")
		}
		return c.Next()
	}
}
