// internals/middlewares/auth/actor_middleware.go
package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helperAuth "examcell_backend/internals/helpers/auth"
)

type ActorOpts struct {
	Secret string
	Now    func() time.Time
}

// OptionalActor identifies the caller when a bearer token is present.
// No token: the request continues anonymously. A token that does not verify: 401.
func OptionalActor(o ActorOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	now := o.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - "+err.Error())
		}
		if raw == "" {
			return c.Next()
		}
		if secret == "" {
			log.Println("[ERROR] JWT_SECRET kosong, bearer token ditolak")
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - token verification unavailable")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		}); err != nil {
			log.Println("[WARN] Gagal parse token:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid token")
		}

		if err := validateTokenExpiry(claims, now(), 30*time.Second); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - "+err.Error())
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid or missing user id")
		}

		c.Locals(helperAuth.LocJWTClaims, claims)
		c.Locals(helperAuth.LocUserID, userID.String())
		return c.Next()
	}
}
