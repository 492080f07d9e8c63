package utils

import (
	httpError "competition-service/src/pkg/http-error"

	"github.com/gofiber/fiber/v2"
)

type responseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Response writes a success envelope.
func Response(data interface{}, message string, status int, ctx *fiber.Ctx) error {
	return ctx.Status(status).JSON(responseBody{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ResponseError maps usecase errors to HTTP responses. Unknown error types
// are treated as internal errors without leaking their text.
func ResponseError(err error, ctx *fiber.Ctx) error {
	if commonErr, ok := err.(*httpError.CommonError); ok {
		return ctx.Status(commonErr.Code).JSON(responseBody{
			Success: false,
			Message: commonErr.Message,
			Code:    commonErr.ResponseCode,
		})
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(responseBody{
		Success: false,
		Message: "internal server error",
		Code:    "INTERNAL_SERVER_ERROR",
	})
}
