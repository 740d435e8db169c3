package serverutils

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware verifies an HS256 bearer token and stores its claims in ctx.Locals("claims").
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing or invalid authorization header"))
		}
		if secret == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Token verification is not configured"))
		}

		token, err := jwt.Parse(strings.TrimPrefix(authHeader, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || token == nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token claims"))
		}

		ctx.Locals("claims", claims)
		if userId, exists := claims["user_id"]; exists {
			ctx.Locals("user_id", userId)
		}
		return ctx.Next()
	}
}

// RequireRole must run after JwtMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, _ := ctx.Locals("claims").(jwt.MapClaims)
		got, ok := claims["role"].(string)
		if !ok {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Role missing"))
		}
		if got != role {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: "+role+" only"))
		}
		return ctx.Next()
	}
}
