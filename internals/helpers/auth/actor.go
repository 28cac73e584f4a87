// package: internals/helpers/auth/actor.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ============================================
   Locals Keys (middleware should set these)
   ============================================ */

const (
	LocUserID    = "user_id"    // string | uuid
	LocJWTClaims = "jwt_claims" // jwt.MapClaims
)

// ActorIDFromLocals returns the authenticated user id, or nil when the request is anonymous
// or the id is not a UUID.
func ActorIDFromLocals(c *fiber.Ctx) *uuid.UUID {
	switch t := c.Locals(LocUserID).(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return nil
		}
		return &t
	case string:
		id, err := uuid.Parse(strings.TrimSpace(t))
		if err != nil || id == uuid.Nil {
			return nil
		}
		return &id
	default:
		return nil
	}
}
