package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

const (
	localUserID   = "user_id"
	localUserName = "user_name"
	tokenCookie   = "token"
)

// Middleware resolves the caller from a bearer header or the token cookie.
func Middleware(v *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, err := ParseBearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			tokenStr = c.Cookies(tokenCookie)
		}
		if tokenStr == "" {
			return apperr.ErrUnauthorized
		}
		claims, err := v.Verify(tokenStr)
		if err != nil {
			return err
		}
		c.Locals(localUserID, claims.Identity())
		c.Locals(localUserName, claims.Name)
		return c.Next()
	}
}

// ActorFrom returns the identity Middleware stored on the request.
func ActorFrom(c *fiber.Ctx) model.Actor {
	id, _ := c.Locals(localUserID).(string)
	name, _ := c.Locals(localUserName).(string)
	return model.Actor{ID: id, Name: name}
}
