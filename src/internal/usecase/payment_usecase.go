package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"competition-service/src/internal/entity"
	"competition-service/src/internal/gateway/messaging"
	"competition-service/src/internal/gateway/mpesa"
	"competition-service/src/internal/model"
	"competition-service/src/internal/repository"
	httpError "competition-service/src/pkg/http-error"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

// TaskTypeStatusCheck is the asynq task polling the gateway for a deposit
// that has not called back yet.
const TaskTypeStatusCheck = "payment:status-check"

func NewStatusCheckTask(checkoutID string) (*asynq.Task, error) {
	payload, err := json.Marshal(model.StatusCheckPayload{CheckoutID: checkoutID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeStatusCheck, payload), nil
}

// TaskScheduler is the slice of asynq.Client the usecase needs.
type TaskScheduler interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type PaymentUseCase struct {
	Log               log.Log
	Validate          *validator.Validate
	Config            *viper.Viper
	PaymentRepository repository.PaymentStore
	Gateway           mpesa.Gateway
	Tasks             TaskScheduler
	PaymentProducer   *messaging.PaymentProducer
}

func NewPaymentUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	paymentRepository repository.PaymentStore,
	gateway mpesa.Gateway,
	tasks TaskScheduler,
	paymentProducer *messaging.PaymentProducer,
) *PaymentUseCase {
	return &PaymentUseCase{
		Log:               logger,
		Validate:          validate,
		Config:            cfg,
		PaymentRepository: paymentRepository,
		Gateway:           gateway,
		Tasks:             tasks,
		PaymentProducer:   paymentProducer,
	}
}

func (c *PaymentUseCase) maxStatusChecks() int {
	n := c.Config.GetInt("payment.max_status_checks")
	if n <= 0 {
		n = 5
	}
	return n
}

func (c *PaymentUseCase) rescueWindow() time.Duration {
	minutes := c.Config.GetInt("payment.rescue_window_minutes")
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

func (c *PaymentUseCase) statusCheckDelay() time.Duration {
	seconds := c.Config.GetInt("payment.status_check_delay_seconds")
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

func (c *PaymentUseCase) RequestDeposit(ctx context.Context, request *model.DepositRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("payment-usecase", err.Error(), "RequestDeposit", utils.ConvertString(request))
		return result
	}
	phone, err := mpesa.NormalizePhone(request.Phone)
	if err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = "invalid phone number"
		result.Error = errObj
		return result
	}
	if err := c.Gateway.ValidateAmount(request.Amount); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = err.Error()
		result.Error = errObj
		return result
	}

	// Nothing is persisted until the gateway accepts the push.
	push, err := c.Gateway.RequestDeposit(ctx, phone, request.Amount, request.UserID)
	if err != nil {
		c.Log.Error("payment-usecase", err.Error(), "RequestDeposit", utils.ConvertString(request))
		var reqErr *mpesa.RequestError
		if errors.As(err, &reqErr) {
			errObj := httpError.NewUnprocessableEntity()
			errObj.Message = "payment gateway rejected the request"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "payment gateway is unavailable"
		result.Error = errObj
		return result
	}

	pending := &entity.PendingTransaction{
		ID:                uuid.NewString(),
		UserID:            request.UserID,
		GatewayCheckoutID: push.CheckoutID,
		GatewayMerchantID: push.MerchantID,
		Phone:             phone,
		Amount:            request.Amount,
		Status:            entity.PaymentStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := c.PaymentRepository.CreatePending(ctx, pending); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to record deposit request"
		result.Error = errObj
		c.Log.Error("payment-usecase", err.Error(), "RequestDeposit", utils.ConvertString(pending))
		return result
	}

	c.enqueueStatusCheck(push.CheckoutID, c.statusCheckDelay())

	result.Data = &model.DepositResponse{
		CheckoutID: push.CheckoutID,
		MerchantID: push.MerchantID,
		Amount:     request.Amount,
		Message:    push.Description,
	}
	return result
}

func (c *PaymentUseCase) enqueueStatusCheck(checkoutID string, delay time.Duration) {
	if c.Tasks == nil {
		return
	}
	task, err := NewStatusCheckTask(checkoutID)
	if err != nil {
		c.Log.Error("payment-usecase", err.Error(), "enqueueStatusCheck", checkoutID)
		return
	}
	if _, err := c.Tasks.Enqueue(task, asynq.ProcessIn(delay)); err != nil {
		// The callback or a client poll can still resolve the deposit.
		c.Log.Error("payment-usecase", err.Error(), "enqueueStatusCheck", checkoutID)
	}
}

// HandleDepositCallback applies the gateway's webhook verdict. Errors are
// logged and swallowed; the controller answers 200 either way.
func (c *PaymentUseCase) HandleDepositCallback(ctx context.Context, callback *model.DepositCallback) {
	stk := callback.Body.StkCallback
	if stk.CheckoutRequestID == "" {
		c.Log.Warn("payment-usecase", "callback without checkout id", "HandleDepositCallback", utils.ConvertString(callback))
		return
	}

	res := &model.GatewayResult{
		Code:        stk.ResultCode,
		Description: stk.ResultDesc,
		Receipt:     callback.ReceiptNumber(),
	}
	if _, err := c.reconcileDeposit(ctx, stk.CheckoutRequestID, res, true); err != nil {
		c.Log.Error("payment-usecase", err.Error(), "HandleDepositCallback", stk.CheckoutRequestID)
	}
}

func (c *PaymentUseCase) CheckDepositStatus(ctx context.Context, request *model.DepositStatusRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	pending, err := c.PaymentRepository.FindPendingByCheckoutID(ctx, request.CheckoutID)
	if errors.Is(err, repository.ErrPendingNotFound) {
		errObj := httpError.NewNotFound()
		errObj.Message = "deposit request not found"
		result.Error = errObj
		return result
	}
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load deposit request"
		result.Error = errObj
		c.Log.Error("payment-usecase", err.Error(), "CheckDepositStatus", utils.ConvertString(request))
		return result
	}
	if pending.UserID != request.UserID {
		errObj := httpError.NewNotFound()
		errObj.Message = "deposit request not found"
		result.Error = errObj
		return result
	}

	if pending.Status == entity.PaymentStatusPending {
		res, err := c.Gateway.QueryDepositStatus(ctx, request.CheckoutID)
		if err != nil {
			// Inconclusive; record the attempt and stay PENDING.
			c.Log.Warn("payment-usecase", err.Error(), "CheckDepositStatus", request.CheckoutID)
			res = nil
		}
		updated, err := c.reconcileDeposit(ctx, request.CheckoutID, res, false)
		if err != nil {
			c.Log.Error("payment-usecase", err.Error(), "CheckDepositStatus", request.CheckoutID)
		} else if updated != nil {
			pending = updated
		}
	}

	result.Data = &model.DepositStatusResponse{
		CheckoutID:    pending.GatewayCheckoutID,
		Status:        pending.Status,
		ReceiptNumber: pending.ReceiptNumber,
		FailureReason: pending.FailureReason,
	}
	return result
}

// HandleStatusCheckTask is the asynq handler behind TaskTypeStatusCheck.
func (c *PaymentUseCase) HandleStatusCheckTask(ctx context.Context, task *asynq.Task) error {
	var payload model.StatusCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal status check payload: %w", err)
	}

	pending, err := c.PaymentRepository.FindPendingByCheckoutID(ctx, payload.CheckoutID)
	if errors.Is(err, repository.ErrPendingNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if pending.Status != entity.PaymentStatusPending {
		return nil
	}

	res, err := c.Gateway.QueryDepositStatus(ctx, payload.CheckoutID)
	if err != nil {
		c.Log.Warn("payment-usecase", err.Error(), "HandleStatusCheckTask", payload.CheckoutID)
		res = nil
	}

	updated, err := c.reconcileDeposit(ctx, payload.CheckoutID, res, false)
	if err != nil {
		return err
	}
	if updated != nil && updated.Status == entity.PaymentStatusPending {
		c.enqueueStatusCheck(payload.CheckoutID, c.statusCheckDelay())
	}
	return nil
}

// reconcileDeposit is the single chokepoint that applies a gateway verdict to
// a pending deposit. Both the webhook and the poll paths land here; the row
// lock inside ReconcilePending serializes them. res == nil means the attempt
// was inconclusive (transport failure), which only updates retry bookkeeping.
// authoritative marks the webhook path, the only one allowed to rescue a
// FAILED record or to fail without exhausting the retry budget.
func (c *PaymentUseCase) reconcileDeposit(ctx context.Context, checkoutID string, res *model.GatewayResult, authoritative bool) (*entity.PendingTransaction, error) {
	var snapshot *entity.PendingTransaction
	var event *model.PaymentEvent

	err := c.PaymentRepository.ReconcilePending(ctx, checkoutID, func(scope repository.PendingScope, p *entity.PendingTransaction) error {
		now := time.Now().UTC()
		defer func() {
			copied := *p
			snapshot = &copied
		}()

		switch p.Status {
		case entity.PaymentStatusCompleted:
			// Late duplicate. Metadata may gain the receipt; the balance
			// must not move again.
			if res != nil && res.Code == gatewayResultSuccess && res.Receipt != "" {
				txn, err := scope.FindTransactionByGatewayRef(p.GatewayCheckoutID, res.Receipt)
				if err != nil {
					return err
				}
				if txn != nil {
					return scope.AnnotateTransaction(txn.ID, entity.Metadata{
						repository.MetaReceiptNumber: res.Receipt,
					})
				}
			}
			return nil

		case entity.PaymentStatusFailed:
			if res == nil || res.Code != gatewayResultSuccess || !authoritative {
				return nil
			}
			if !isRescuableFailure(p.ResultCode) {
				c.Log.Warn("payment-usecase", "success callback for definitively failed deposit ignored",
					"reconcileDeposit", checkoutID)
				return nil
			}
			if p.FailedAt == nil || now.Sub(*p.FailedAt) > c.rescueWindow() {
				c.Log.Warn("payment-usecase", "success callback past rescue window ignored",
					"reconcileDeposit", checkoutID)
				return nil
			}
			c.Log.Info("payment-usecase", "rescuing failed deposit inside grace window",
				"reconcileDeposit", checkoutID)
			if err := c.completePending(scope, p, res.Receipt, now); err != nil {
				return err
			}
			event = c.depositEvent(p)
			return nil

		default: // PENDING
			if res == nil || (!isDefinitiveFailure(res.Code) && res.Code != gatewayResultSuccess) {
				p.RetryCount++
				p.LastCheckedAt = &now
				if res != nil {
					p.ResultCode = res.Code
				}
				if !authoritative && p.RetryCount >= c.maxStatusChecks() {
					// Transient mark; a success callback inside the rescue
					// window can still reopen it.
					p.Status = entity.PaymentStatusFailed
					p.FailedAt = &now
					if p.ResultCode == gatewayResultSuccess {
						p.ResultCode = gatewayResultTimeout
					}
					p.FailureReason = sanitizeFailure(p.ResultCode)
					event = c.depositEvent(p)
				}
				return scope.SavePending(p)
			}

			if res.Code == gatewayResultSuccess {
				if err := c.completePending(scope, p, res.Receipt, now); err != nil {
					return err
				}
				event = c.depositEvent(p)
				return nil
			}

			p.Status = entity.PaymentStatusFailed
			p.ResultCode = res.Code
			p.FailureReason = sanitizeFailure(res.Code)
			p.FailedAt = &now
			event = c.depositEvent(p)
			return scope.SavePending(p)
		}
	})
	if err != nil {
		return nil, err
	}

	if event != nil && c.PaymentProducer != nil {
		if sendErr := c.PaymentProducer.Send(event); sendErr != nil {
			c.Log.Error("payment-usecase", sendErr.Error(), "reconcileDeposit", checkoutID)
		}
	}
	return snapshot, nil
}

// completePending credits the wallet exactly once and marks the record
// COMPLETED. Runs under the pending row lock.
func (c *PaymentUseCase) completePending(scope repository.PendingScope, p *entity.PendingTransaction, receipt string, now time.Time) error {
	existing, err := scope.FindTransactionByGatewayRef(p.GatewayCheckoutID, receipt)
	if err != nil {
		return err
	}
	if existing == nil {
		meta := entity.Metadata{
			repository.MetaCheckoutID: p.GatewayCheckoutID,
			"phone":                   p.Phone,
		}
		if receipt != "" {
			meta[repository.MetaReceiptNumber] = receipt
		}
		if _, err := scope.Credit(p.UserID, p.Amount, entity.TransactionTypeDeposit, meta); err != nil {
			return err
		}
	} else {
		c.Log.Info("payment-usecase", "duplicate gateway reference, skipping credit",
			"completePending", p.GatewayCheckoutID)
	}

	p.Status = entity.PaymentStatusCompleted
	p.ReceiptNumber = receipt
	p.ResultCode = gatewayResultSuccess
	p.FailureReason = ""
	p.CompletedAt = &now
	p.FailedAt = nil
	return scope.SavePending(p)
}

func (c *PaymentUseCase) depositEvent(p *entity.PendingTransaction) *model.PaymentEvent {
	return &model.PaymentEvent{
		EventID:   uuid.NewString(),
		UserID:    p.UserID,
		Kind:      entity.TransactionTypeDeposit,
		Amount:    p.Amount,
		Status:    p.Status,
		Reference: p.GatewayCheckoutID,
	}
}

func (c *PaymentUseCase) RequestWithdrawal(ctx context.Context, request *model.WithdrawRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}
	phone, err := mpesa.NormalizePhone(request.Phone)
	if err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = "invalid phone number"
		result.Error = errObj
		return result
	}
	if err := c.Gateway.ValidateAmount(request.Amount); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = err.Error()
		result.Error = errObj
		return result
	}

	payout := &entity.PayoutTransaction{
		ID:           uuid.NewString(),
		UserID:       request.UserID,
		Phone:        phone,
		Amount:       request.Amount,
		OriginatorID: uuid.NewString(),
		Status:       entity.PaymentStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	// The debit and the payout row commit together before the gateway call,
	// so a crash mid-flight leaves a refundable PENDING payout, never a
	// silent balance loss.
	if _, err := c.PaymentRepository.CreatePayoutWithDebit(ctx, payout, entity.Metadata{
		"originator_id": payout.OriginatorID,
		"phone":         phone,
	}); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			errObj := httpError.NewBadRequest()
			errObj.Message = "insufficient funds"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to initiate withdrawal"
		result.Error = errObj
		c.Log.Error("payment-usecase", err.Error(), "RequestWithdrawal", utils.ConvertString(request))
		return result
	}

	sent, err := c.Gateway.RequestPayout(ctx, payout.OriginatorID, phone, request.Amount, "wallet withdrawal")
	if err != nil {
		c.Log.Error("payment-usecase", err.Error(), "RequestWithdrawal", payout.OriginatorID)
		if failErr := c.failPayout(ctx, "", payout.OriginatorID, 0, "payout could not be initiated"); failErr != nil {
			c.Log.Error("payment-usecase", failErr.Error(), "RequestWithdrawal", payout.OriginatorID)
		}
		errObj := httpError.NewUnprocessableEntity()
		errObj.Message = "payment gateway rejected the withdrawal"
		result.Error = errObj
		return result
	}

	if err := c.PaymentRepository.SetPayoutConversationID(ctx, payout.ID, sent.ConversationID); err != nil {
		// The result webhook still matches on originator id.
		c.Log.Error("payment-usecase", err.Error(), "RequestWithdrawal", payout.OriginatorID)
	}

	result.Data = &model.WithdrawResponse{
		PayoutID:       payout.ID,
		ConversationID: sent.ConversationID,
		Amount:         request.Amount,
		Status:         entity.PaymentStatusPending,
	}
	return result
}

// HandlePayoutResult applies the B2C result webhook. Always-200 contract;
// errors are logged only.
func (c *PaymentUseCase) HandlePayoutResult(ctx context.Context, callback *model.PayoutCallback) {
	res := callback.Result
	var event *model.PaymentEvent

	err := c.PaymentRepository.ReconcilePayout(ctx, res.ConversationID, res.OriginatorConversationID,
		func(scope repository.PayoutScope, p *entity.PayoutTransaction) error {
			if p.Status != entity.PaymentStatusPending {
				return nil
			}
			now := time.Now().UTC()

			if res.ResultCode == gatewayResultSuccess {
				p.Status = entity.PaymentStatusCompleted
				p.ResultCode = res.ResultCode
				p.ReceiptNumber = res.TransactionID
				p.CompletedAt = &now
				if err := scope.SavePayout(p); err != nil {
					return err
				}
				event = c.payoutEvent(p)
				return nil
			}

			if err := c.reversePayout(scope, p, res.ResultCode, "payout could not be completed"); err != nil {
				return err
			}
			event = c.payoutEvent(p)
			return nil
		})
	if err != nil {
		c.Log.Error("payment-usecase", err.Error(), "HandlePayoutResult", res.OriginatorConversationID)
		return
	}

	if event != nil && c.PaymentProducer != nil {
		if sendErr := c.PaymentProducer.Send(event); sendErr != nil {
			c.Log.Error("payment-usecase", sendErr.Error(), "HandlePayoutResult", res.OriginatorConversationID)
		}
	}
}

// HandlePayoutTimeout records the queue-timeout webhook. The payout stays
// PENDING; the result webhook remains authoritative.
func (c *PaymentUseCase) HandlePayoutTimeout(ctx context.Context, callback *model.PayoutCallback) {
	c.Log.Warn("payment-usecase", "payout queue timeout reported",
		"HandlePayoutTimeout", utils.ConvertString(callback.Result))
}

func (c *PaymentUseCase) failPayout(ctx context.Context, conversationID, originatorID string, resultCode int, reason string) error {
	return c.PaymentRepository.ReconcilePayout(ctx, conversationID, originatorID,
		func(scope repository.PayoutScope, p *entity.PayoutTransaction) error {
			if p.Status != entity.PaymentStatusPending {
				return nil
			}
			return c.reversePayout(scope, p, resultCode, reason)
		})
}

// reversePayout marks the payout FAILED, refunds the held amount and
// annotates the original debit as reversed. Runs under the payout row lock.
func (c *PaymentUseCase) reversePayout(scope repository.PayoutScope, p *entity.PayoutTransaction, resultCode int, reason string) error {
	p.Status = entity.PaymentStatusFailed
	p.ResultCode = resultCode
	p.FailureReason = reason

	refund, err := scope.Credit(p.UserID, p.Amount, entity.TransactionTypeRefund, entity.Metadata{
		"originator_id":        p.OriginatorID,
		"reversed_transaction": p.LinkedTransactionID,
	})
	if err != nil {
		return err
	}
	if err := scope.AnnotateTransaction(p.LinkedTransactionID, entity.Metadata{
		"reversed":             true,
		"reversal_transaction": refund.ID,
		"reversal_reason":      reason,
	}); err != nil {
		return err
	}
	return scope.SavePayout(p)
}

func (c *PaymentUseCase) payoutEvent(p *entity.PayoutTransaction) *model.PaymentEvent {
	return &model.PaymentEvent{
		EventID:   uuid.NewString(),
		UserID:    p.UserID,
		Kind:      entity.TransactionTypeWithdrawal,
		Amount:    p.Amount,
		Status:    p.Status,
		Reference: p.OriginatorID,
	}
}
