package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"giga-banana-web/internal/pkg/token"
)

// NewJwtMiddleware guards routes with a bearer access token. The user id
// and email land in Locals for handlers downstream.
func NewJwtMiddleware(tokens *token.Manager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return Error(ctx, fiber.StatusUnauthorized, "인증이 필요합니다.")
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tokens.Verify(tokenStr)
		if err != nil || claims.Type != token.TypeAccess {
			return Error(ctx, fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
		}

		ctx.Locals("user_id", claims.UserID)
		ctx.Locals("user_email", claims.Email)
		return ctx.Next()
	}
}
