package http

import (
	"competition-service/src/internal/delivery/http/middleware"
	"competition-service/src/internal/model"
	"competition-service/src/internal/usecase"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type CompetitionController struct {
	Log     log.Log
	UseCase *usecase.CompetitionUseCase
}

func NewCompetitionController(useCase *usecase.CompetitionUseCase, logger log.Log) *CompetitionController {
	return &CompetitionController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *CompetitionController) Create(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CreateCompetitionRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("CompetitionController.Create", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID

	result := c.UseCase.Create(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Competition created", fiber.StatusCreated, ctx)
}

func (c *CompetitionController) ListPublic(ctx *fiber.Ctx) error {
	result := c.UseCase.ListPublic(ctx.Context())
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "ListPublic", fiber.StatusOK, ctx)
}

func (c *CompetitionController) GetByCode(ctx *fiber.Ctx) error {
	request := &model.GetCompetitionRequest{
		Code: ctx.Params("code"),
	}
	result := c.UseCase.GetByCode(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "GetCompetition", fiber.StatusOK, ctx)
}

func (c *CompetitionController) Join(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.CompetitionActionRequest{
		UserID: auth.UserID,
		Code:   ctx.Params("code"),
	}
	result := c.UseCase.Join(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Joined competition", fiber.StatusOK, ctx)
}

func (c *CompetitionController) Leave(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.CompetitionActionRequest{
		UserID: auth.UserID,
		Code:   ctx.Params("code"),
	}
	result := c.UseCase.Leave(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Left competition", fiber.StatusOK, ctx)
}

func (c *CompetitionController) SubmitScore(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.SubmitScoreRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("CompetitionController.SubmitScore", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID
	request.Code = ctx.Params("code")

	result := c.UseCase.SubmitScore(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Score submitted", fiber.StatusOK, ctx)
}
