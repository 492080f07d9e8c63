package middleware

import (
	"errors"
	"strings"

	httpError "competition-service/src/pkg/http-error"
	"competition-service/src/pkg/token"
	"competition-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const authLocalsKey = "auth"

// VerifyBearer validates the Authorization header and stores the claim in
// the request locals.
func VerifyBearer(cfg *viper.Viper) fiber.Handler {
	secret := []byte(cfg.GetString("jwt.secret"))

	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return utils.ResponseError(httpError.NewUnauthorized(), ctx)
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claim := new(token.Claim)
		parsed, err := jwt.ParseWithClaims(raw, claim, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid || claim.UserID == "" {
			return utils.ResponseError(httpError.NewUnauthorized(), ctx)
		}

		ctx.Locals(authLocalsKey, claim)
		return ctx.Next()
	}
}

// GetUser returns the authenticated claim set by VerifyBearer.
func GetUser(ctx *fiber.Ctx) *token.Claim {
	if claim, ok := ctx.Locals(authLocalsKey).(*token.Claim); ok {
		return claim
	}
	return &token.Claim{}
}
