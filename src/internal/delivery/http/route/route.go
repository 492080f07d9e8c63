package route

import (
	"competition-service/src/internal/delivery/http"
	"competition-service/src/internal/gateway/mpesa"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App                   *fiber.App
	WalletController      *http.WalletController
	PaymentController     *http.PaymentController
	CompetitionController *http.CompetitionController
	AuthMiddleware        fiber.Handler
}

func (c *RouteConfig) Setup() {
	c.App.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	// Gateway callbacks authenticate by obscurity of the registered URL,
	// not by bearer token.
	c.App.Post(mpesa.DepositCallbackPath, c.PaymentController.DepositCallback)
	c.App.Post(mpesa.PayoutCallbackPath, c.PaymentController.PayoutCallback)
	c.App.Post(mpesa.PayoutTimeoutCallbackPath, c.PaymentController.PayoutTimeoutCallback)

	c.SetupAuthRoute()
}

func (c *RouteConfig) SetupAuthRoute() {
	c.App.Use(c.AuthMiddleware)

	c.App.Get("/wallets/v1/balance", c.WalletController.GetBalance)
	c.App.Get("/wallets/v1/transactions", c.WalletController.ListTransactions)

	c.App.Post("/payments/v1/deposit", c.PaymentController.Deposit)
	c.App.Get("/payments/v1/deposit/:checkoutId/status", c.PaymentController.DepositStatus)
	c.App.Post("/payments/v1/withdraw", c.PaymentController.Withdraw)

	c.App.Post("/competitions/v1", c.CompetitionController.Create)
	c.App.Get("/competitions/v1", c.CompetitionController.ListPublic)
	c.App.Get("/competitions/v1/:code", c.CompetitionController.GetByCode)
	c.App.Post("/competitions/v1/:code/join", c.CompetitionController.Join)
	c.App.Post("/competitions/v1/:code/leave", c.CompetitionController.Leave)
	c.App.Post("/competitions/v1/:code/scores", c.CompetitionController.SubmitScore)
}
