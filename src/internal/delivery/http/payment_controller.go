package http

import (
	"competition-service/src/internal/delivery/http/middleware"
	"competition-service/src/internal/model"
	"competition-service/src/internal/usecase"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PaymentController struct {
	Log     log.Log
	UseCase *usecase.PaymentUseCase
}

func NewPaymentController(useCase *usecase.PaymentUseCase, logger log.Log) *PaymentController {
	return &PaymentController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *PaymentController) Deposit(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.DepositRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PaymentController.Deposit", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID

	result := c.UseCase.RequestDeposit(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Deposit initiated", fiber.StatusAccepted, ctx)
}

func (c *PaymentController) DepositStatus(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.DepositStatusRequest{
		UserID:     auth.UserID,
		CheckoutID: ctx.Params("checkoutId"),
	}
	result := c.UseCase.CheckDepositStatus(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "DepositStatus", fiber.StatusOK, ctx)
}

func (c *PaymentController) Withdraw(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.WithdrawRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PaymentController.Withdraw", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID

	result := c.UseCase.RequestWithdrawal(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Withdrawal initiated", fiber.StatusAccepted, ctx)
}

// gatewayAck is the fixed 200 body every callback endpoint answers with.
// Non-200 responses trigger gateway retry storms, so parse failures are
// logged and acknowledged anyway.
func gatewayAck(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(model.GatewayAck{
		ResultCode: 0,
		ResultDesc: "Accepted",
	})
}

func (c *PaymentController) DepositCallback(ctx *fiber.Ctx) error {
	callback := new(model.DepositCallback)
	if err := ctx.BodyParser(callback); err != nil {
		c.Log.Error("PaymentController.DepositCallback", "Failed to parse callback body", "error", err.Error())
		return gatewayAck(ctx)
	}

	c.UseCase.HandleDepositCallback(ctx.Context(), callback)
	return gatewayAck(ctx)
}

func (c *PaymentController) PayoutCallback(ctx *fiber.Ctx) error {
	callback := new(model.PayoutCallback)
	if err := ctx.BodyParser(callback); err != nil {
		c.Log.Error("PaymentController.PayoutCallback", "Failed to parse callback body", "error", err.Error())
		return gatewayAck(ctx)
	}

	c.UseCase.HandlePayoutResult(ctx.Context(), callback)
	return gatewayAck(ctx)
}

func (c *PaymentController) PayoutTimeoutCallback(ctx *fiber.Ctx) error {
	callback := new(model.PayoutCallback)
	if err := ctx.BodyParser(callback); err != nil {
		c.Log.Error("PaymentController.PayoutTimeoutCallback", "Failed to parse callback body", "error", err.Error())
		return gatewayAck(ctx)
	}

	c.UseCase.HandlePayoutTimeout(ctx.Context(), callback)
	return gatewayAck(ctx)
}
