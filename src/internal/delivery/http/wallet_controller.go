package http

import (
	"competition-service/src/internal/delivery/http/middleware"
	"competition-service/src/internal/model"
	"competition-service/src/internal/usecase"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletController struct {
	Log     log.Log
	UseCase *usecase.WalletUseCase
}

func NewWalletController(useCase *usecase.WalletUseCase, logger log.Log) *WalletController {
	return &WalletController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *WalletController) GetBalance(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.GetBalanceRequest{
		UserID: auth.UserID,
	}
	result := c.UseCase.GetBalance(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "GetBalance", fiber.StatusOK, ctx)
}

func (c *WalletController) ListTransactions(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.ListTransactionsRequest{
		UserID: auth.UserID,
		Limit:  ctx.QueryInt("limit"),
		Offset: ctx.QueryInt("offset"),
	}
	result := c.UseCase.ListTransactions(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "ListTransactions", fiber.StatusOK, ctx)
}
