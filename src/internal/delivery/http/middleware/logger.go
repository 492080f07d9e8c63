package middleware

import (
	"fmt"
	"time"

	"competition-service/src/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// NewLogger logs one line per request with method, path, status and latency.
func NewLogger() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		latency := time.Since(start)

		log.GetLogger().Info("http",
			fmt.Sprintf("%s %s -> %d (%s)", ctx.Method(), ctx.Path(), ctx.Response().StatusCode(), latency),
			"request", ctx.IP())
		return err
	}
}
