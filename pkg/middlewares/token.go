package middlewares

import (
	"strings"

	"chat_delivery_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	//QueryToken token in query name, websocket clients cannot set headers
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenAccountID caller account id (uuid.UUID) in c.Locals
	TokenAccountID = "AccountID"
	//TokenRole caller role in c.Locals
	TokenRole = "role"
)

// JWTMiddleware resolves the caller identity from the Authorization header,
// the auth query parameter or the auth cookie, in that order.
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearer(c.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}
		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
				"kind":  "unauthorized",
			})
		}

		claims, err := token.ParseJWT(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
				"kind":  "unauthorized",
			})
		}

		accountID, err := uuid.Parse(claims.AccountID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
				"kind":  "unauthorized",
			})
		}

		c.Locals(TokenAccountID, accountID)
		c.Locals(TokenRole, claims.Role)
		return c.Next()
	}
}

// AccountID returns the caller resolved by JWTMiddleware.
func AccountID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(TokenAccountID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
