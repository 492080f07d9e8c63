package usecase

import (
	"context"
	"errors"
	"fmt"

	"competition-service/src/internal/model"
	"competition-service/src/internal/model/converter"
	"competition-service/src/internal/repository"
	httpError "competition-service/src/pkg/http-error"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
)

type WalletUseCase struct {
	Log              log.Log
	Validate         *validator.Validate
	WalletRepository repository.WalletStore
}

func NewWalletUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository repository.WalletStore,
) *WalletUseCase {
	return &WalletUseCase{
		Log:              logger,
		Validate:         validate,
		WalletRepository: walletRepository,
	}
}

func (c *WalletUseCase) GetBalance(ctx context.Context, request *model.GetBalanceRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", err.Error(), "GetBalance", utils.ConvertString(request))
		return result
	}

	wallet, err := c.WalletRepository.FindByUserID(ctx, request.UserID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		// No wallet yet means a zero balance, not an error.
		result.Data = &model.BalanceResponse{UserID: request.UserID, Balance: 0}
		return result
	}
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load wallet"
		result.Error = errObj
		c.Log.Error("wallet-usecase", err.Error(), "GetBalance", utils.ConvertString(request))
		return result
	}

	result.Data = converter.WalletToBalanceResponse(wallet)
	return result
}

func (c *WalletUseCase) ListTransactions(ctx context.Context, request *model.ListTransactionsRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", err.Error(), "ListTransactions", utils.ConvertString(request))
		return result
	}

	txns, err := c.WalletRepository.ListTransactions(ctx, request.UserID, request.Limit, request.Offset)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load transactions"
		result.Error = errObj
		c.Log.Error("wallet-usecase", err.Error(), "ListTransactions", utils.ConvertString(request))
		return result
	}

	result.Data = converter.TransactionsToResponse(txns)
	return result
}
