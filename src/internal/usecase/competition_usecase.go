package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"competition-service/src/internal/entity"
	"competition-service/src/internal/gateway/messaging"
	"competition-service/src/internal/model"
	"competition-service/src/internal/model/converter"
	"competition-service/src/internal/repository"
	httpError "competition-service/src/pkg/http-error"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const publicCompetitionsKey = "COMPETITIONS:PUBLIC"

type CompetitionUseCase struct {
	Log                   log.Log
	Validate              *validator.Validate
	Config                *viper.Viper
	CompetitionRepository repository.CompetitionStore
	GameRepository        repository.GameStore
	Redis                 redis.UniversalClient
	CompetitionProducer   *messaging.CompetitionProducer
}

func NewCompetitionUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	competitionRepository repository.CompetitionStore,
	gameRepository repository.GameStore,
	redisClient redis.UniversalClient,
	competitionProducer *messaging.CompetitionProducer,
) *CompetitionUseCase {
	return &CompetitionUseCase{
		Log:                   logger,
		Validate:              validate,
		Config:                cfg,
		CompetitionRepository: competitionRepository,
		GameRepository:        gameRepository,
		Redis:                 redisClient,
		CompetitionProducer:   competitionProducer,
	}
}

// generateCode returns a 12-character lowercase hex join code.
func generateCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (c *CompetitionUseCase) Create(ctx context.Context, request *model.CreateCompetitionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("competition-usecase", err.Error(), "Create", utils.ConvertString(request))
		return result
	}
	if !request.EndsAt.After(request.StartsAt) {
		errObj := httpError.NewBadRequest()
		errObj.Message = "endsAt must be after startsAt"
		result.Error = errObj
		return result
	}

	if _, err := c.GameRepository.FindByID(ctx, request.GameID); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			errObj := httpError.NewNotFound()
			errObj.Message = "game not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load game"
		result.Error = errObj
		c.Log.Error("competition-usecase", err.Error(), "Create", utils.ConvertString(request))
		return result
	}

	code, err := generateCode()
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to generate competition code"
		result.Error = errObj
		return result
	}

	now := time.Now().UTC()
	status := entity.CompetitionStatusUpcoming
	if !request.StartsAt.After(now) {
		status = entity.CompetitionStatusOngoing
	}

	comp := &entity.Competition{
		ID:         uuid.NewString(),
		Code:       code,
		CreatorID:  request.UserID,
		GameID:     request.GameID,
		Privacy:    request.Privacy,
		MaxPlayers: request.MaxPlayers,
		EntryFee:   request.EntryFee,
		Status:     status,
		StartsAt:   request.StartsAt,
		EndsAt:     request.EndsAt,
	}

	var players []entity.CompetitionPlayer
	err = c.CompetitionRepository.CreateCompetition(ctx, comp, func(scope repository.CompetitionScope) error {
		if comp.EntryFee > 0 {
			_, err := scope.Debit(comp.CreatorID, comp.EntryFee, entity.TransactionTypeEntryFee, entity.Metadata{
				"competition_code": comp.Code,
			})
			if err != nil {
				return err
			}
			comp.TotalPrizePool = netEntry(comp.EntryFee, comp.Privacy)
			if err := scope.SaveCompetition(comp); err != nil {
				return err
			}
		}

		creator := entity.CompetitionPlayer{
			ID:            uuid.NewString(),
			CompetitionID: comp.ID,
			UserID:        comp.CreatorID,
			Paid:          true,
			JoinedAt:      now,
		}
		if err := scope.InsertPlayer(&creator); err != nil {
			return err
		}
		players = append(players, creator)
		return nil
	})
	if err != nil {
		result.Error = c.mapError(err, "Create", comp.Code)
		return result
	}

	c.invalidatePublicCache(ctx)
	c.publishEvent(comp, nil)

	result.Data = converter.CompetitionToResponse(comp, players)
	return result
}

func (c *CompetitionUseCase) Join(ctx context.Context, request *model.CompetitionActionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	var response *model.CompetitionResponse
	now := time.Now().UTC()
	err := c.CompetitionRepository.WithCompetitionByCode(ctx, request.Code,
		func(scope repository.CompetitionScope, comp *entity.Competition) error {
			if comp.Terminal() || !now.Before(comp.EndsAt) {
				errObj := httpError.NewConflict()
				errObj.Message = "competition has ended"
				return errObj
			}

			players, err := scope.Players()
			if err != nil {
				return err
			}
			for _, p := range players {
				if p.UserID == request.UserID {
					errObj := httpError.NewConflict()
					errObj.Message = "already joined"
					return errObj
				}
			}
			if comp.MaxPlayers > 0 && len(players) >= comp.MaxPlayers {
				errObj := httpError.NewConflict()
				errObj.Message = "competition is full"
				return errObj
			}

			if comp.EntryFee > 0 {
				_, err := scope.Debit(request.UserID, comp.EntryFee, entity.TransactionTypeEntryFee, entity.Metadata{
					"competition_code": comp.Code,
				})
				if err != nil {
					return err
				}
				comp.TotalPrizePool += netEntry(comp.EntryFee, comp.Privacy)
				if err := scope.SaveCompetition(comp); err != nil {
					return err
				}
			}

			player := entity.CompetitionPlayer{
				ID:            uuid.NewString(),
				CompetitionID: comp.ID,
				UserID:        request.UserID,
				Paid:          true,
				JoinedAt:      now,
			}
			if err := scope.InsertPlayer(&player); err != nil {
				return err
			}
			players = append(players, player)
			response = converter.CompetitionToResponse(comp, players)
			return nil
		})
	if err != nil {
		result.Error = c.mapError(err, "Join", request.Code)
		return result
	}

	c.invalidatePublicCache(ctx)
	result.Data = response
	return result
}

func (c *CompetitionUseCase) Leave(ctx context.Context, request *model.CompetitionActionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	err := c.CompetitionRepository.WithCompetitionByCode(ctx, request.Code,
		func(scope repository.CompetitionScope, comp *entity.Competition) error {
			if comp.Terminal() {
				errObj := httpError.NewConflict()
				errObj.Message = "competition has ended"
				return errObj
			}

			players, err := scope.Players()
			if err != nil {
				return err
			}

			var leaver *entity.CompetitionPlayer
			for i := range players {
				if players[i].HasPlayed {
					errObj := httpError.NewConflict()
					errObj.Message = "scores already submitted"
					return errObj
				}
				if players[i].UserID == request.UserID {
					leaver = &players[i]
				}
			}
			if leaver == nil {
				errObj := httpError.NewForbidden()
				errObj.Message = "not a participant"
				return errObj
			}

			if request.UserID == comp.CreatorID && len(players) > 1 {
				errObj := httpError.NewConflict()
				errObj.Message = "creator cannot leave while other players remain"
				return errObj
			}

			refund := int64(0)
			if leaver.Paid && comp.EntryFee > 0 {
				refund = netEntry(comp.EntryFee, comp.Privacy)
			}
			if refund > 0 {
				_, err := scope.Credit(request.UserID, refund, entity.TransactionTypeRefund, entity.Metadata{
					"competition_code": comp.Code,
					"reason":           "left competition",
				})
				if err != nil {
					return err
				}
				comp.TotalPrizePool -= refund
			}

			if err := scope.DeletePlayer(leaver); err != nil {
				return err
			}
			if request.UserID == comp.CreatorID {
				// Creator leaving alone dissolves the competition.
				return scope.DeleteCompetition(comp)
			}
			return scope.SaveCompetition(comp)
		})
	if err != nil {
		result.Error = c.mapError(err, "Leave", request.Code)
		return result
	}

	c.invalidatePublicCache(ctx)
	result.Data = map[string]interface{}{"left": true}
	return result
}

func (c *CompetitionUseCase) SubmitScore(ctx context.Context, request *model.SubmitScoreRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	var settled *model.CompetitionEvent
	var response *model.CompetitionResponse
	err := c.CompetitionRepository.WithCompetitionByCode(ctx, request.Code,
		func(scope repository.CompetitionScope, comp *entity.Competition) error {
			if comp.Status == entity.CompetitionStatusUpcoming {
				errObj := httpError.NewConflict()
				errObj.Message = "competition has not started"
				return errObj
			}
			if comp.Terminal() {
				errObj := httpError.NewConflict()
				errObj.Message = "competition has ended"
				return errObj
			}

			players, err := scope.Players()
			if err != nil {
				return err
			}
			var player *entity.CompetitionPlayer
			for i := range players {
				if players[i].UserID == request.UserID {
					player = &players[i]
					break
				}
			}
			if player == nil {
				errObj := httpError.NewForbidden()
				errObj.Message = "not a participant"
				return errObj
			}

			now := time.Now().UTC()
			if !player.HasPlayed {
				player.HasPlayed = true
				player.PlayedAt = &now
				player.Score = request.Score
			} else if request.Score > player.Score {
				player.Score = request.Score
			}
			if err := scope.SavePlayer(player); err != nil {
				return err
			}

			allPlayed := true
			for i := range players {
				if !players[i].HasPlayed {
					allPlayed = false
					break
				}
			}

			minPlayers := 1
			if game, err := scope.FindGame(comp.GameID); err == nil {
				minPlayers = game.MinPlayers
			}

			if allPlayed && len(players) >= minPlayers {
				awards, err := c.settleLocked(scope, comp, players)
				if err != nil {
					return err
				}
				settled = c.competitionEvent(comp, awards)
			}
			response = converter.CompetitionToResponse(comp, players)
			return nil
		})
	if err != nil {
		result.Error = c.mapError(err, "SubmitScore", request.Code)
		return result
	}

	if settled != nil {
		c.invalidatePublicCache(ctx)
		c.sendEvent(settled)
	}
	result.Data = response
	return result
}

// settleLocked finalizes a competition under its row lock: ranks everyone,
// credits PRIZE transactions and flips the status to COMPLETED. Safe to call
// twice; a terminal competition is left untouched.
func (c *CompetitionUseCase) settleLocked(scope repository.CompetitionScope, comp *entity.Competition, players []entity.CompetitionPlayer) ([]model.PrizeAwardMessage, error) {
	if comp.Terminal() {
		return nil, nil
	}

	ranked := rankPlayers(players)
	awards := distributePrizes(comp.TotalPrizePool, ranked)

	for i := range ranked {
		if err := scope.SavePlayer(&ranked[i]); err != nil {
			return nil, err
		}
	}
	for _, award := range awards {
		_, err := scope.Credit(award.UserID, award.Amount, entity.TransactionTypePrize, entity.Metadata{
			"competition_code": comp.Code,
			"rank":             award.Rank,
		})
		if err != nil {
			return nil, err
		}
	}

	comp.Status = entity.CompetitionStatusCompleted
	if err := scope.SaveCompetition(comp); err != nil {
		return nil, err
	}
	return awards, nil
}

// ActivateDueCompetitions flips UPCOMING competitions past their start time
// to ONGOING. Invoked by the short scheduler sweep; idempotent.
func (c *CompetitionUseCase) ActivateDueCompetitions(ctx context.Context) error {
	now := time.Now().UTC()
	codes, err := c.CompetitionRepository.ListCodesDueToStart(ctx, now, 100)
	if err != nil {
		return err
	}

	for _, code := range codes {
		err := c.CompetitionRepository.WithCompetitionByCode(ctx, code,
			func(scope repository.CompetitionScope, comp *entity.Competition) error {
				if comp.Status != entity.CompetitionStatusUpcoming || comp.StartsAt.After(now) {
					return nil
				}
				comp.Status = entity.CompetitionStatusOngoing
				return scope.SaveCompetition(comp)
			})
		if err != nil {
			c.Log.Error("competition-usecase", err.Error(), "ActivateDueCompetitions", code)
			continue
		}
		c.Log.Info("competition-usecase", "competition activated", "ActivateDueCompetitions", code)
	}
	if len(codes) > 0 {
		c.invalidatePublicCache(ctx)
	}
	return nil
}

// ExpireOverdueCompetitions applies the end-of-life rules to competitions
// past endsAt. Invoked by the long scheduler sweep; every decision re-checks
// state under the competition row lock so it cannot double-settle against a
// concurrent score submission.
func (c *CompetitionUseCase) ExpireOverdueCompetitions(ctx context.Context) error {
	now := time.Now().UTC()
	codes, err := c.CompetitionRepository.ListCodesOverdue(ctx, now, 100)
	if err != nil {
		return err
	}

	for _, code := range codes {
		var event *model.CompetitionEvent
		err := c.CompetitionRepository.WithCompetitionByCode(ctx, code,
			func(scope repository.CompetitionScope, comp *entity.Competition) error {
				if comp.Terminal() || now.Before(comp.EndsAt) {
					return nil
				}

				players, err := scope.Players()
				if err != nil {
					return err
				}
				played := 0
				for i := range players {
					if players[i].HasPlayed {
						played++
					}
				}

				switch {
				case played >= 1:
					awards, err := c.settleLocked(scope, comp, players)
					if err != nil {
						return err
					}
					event = c.competitionEvent(comp, awards)
					return nil

				case len(players) == 1 && players[0].UserID == comp.CreatorID:
					// Nobody ever showed up; give the creator the whole
					// entry fee back and erase the competition.
					if players[0].Paid && comp.EntryFee > 0 {
						_, err := scope.Credit(comp.CreatorID, comp.EntryFee, entity.TransactionTypeRefund, entity.Metadata{
							"competition_code": comp.Code,
							"reason":           "competition expired unused",
						})
						if err != nil {
							return err
						}
					}
					return scope.DeleteCompetition(comp)

				default:
					refund := netEntry(comp.EntryFee, comp.Privacy)
					for i := range players {
						if !players[i].Paid || refund <= 0 {
							continue
						}
						_, err := scope.Credit(players[i].UserID, refund, entity.TransactionTypeRefund, entity.Metadata{
							"competition_code": comp.Code,
							"reason":           "competition canceled",
						})
						if err != nil {
							return err
						}
					}
					comp.Status = entity.CompetitionStatusCanceled
					comp.TotalPrizePool = 0
					if err := scope.SaveCompetition(comp); err != nil {
						return err
					}
					event = c.competitionEvent(comp, nil)
					return nil
				}
			})
		if err != nil {
			c.Log.Error("competition-usecase", err.Error(), "ExpireOverdueCompetitions", code)
			continue
		}
		if event != nil {
			c.sendEvent(event)
		}
	}
	if len(codes) > 0 {
		c.invalidatePublicCache(ctx)
	}
	return nil
}

func (c *CompetitionUseCase) GetByCode(ctx context.Context, request *model.GetCompetitionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	comp, players, err := c.CompetitionRepository.FindByCode(ctx, request.Code)
	if err != nil {
		result.Error = c.mapError(err, "GetByCode", request.Code)
		return result
	}

	result.Data = converter.CompetitionToResponse(comp, players)
	return result
}

func (c *CompetitionUseCase) ListPublic(ctx context.Context) utils.Result {
	var result utils.Result

	if c.Redis != nil {
		cached, err := c.Redis.Get(ctx, publicCompetitionsKey).Result()
		if err == nil && cached != "" {
			var listing []model.CompetitionResponse
			if err := json.Unmarshal([]byte(cached), &listing); err == nil {
				result.Data = listing
				return result
			}
		}
	}

	comps, err := c.CompetitionRepository.ListPublic(ctx, 20)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to list competitions"
		result.Error = errObj
		c.Log.Error("competition-usecase", err.Error(), "ListPublic", "")
		return result
	}

	listing := converter.CompetitionsToResponse(comps)
	if c.Redis != nil {
		ttl := c.Config.GetInt("competition.public_cache_seconds")
		if ttl <= 0 {
			ttl = 30
		}
		raw, err := json.Marshal(listing)
		if err == nil {
			if redisErr := c.Redis.Set(ctx, publicCompetitionsKey, raw, time.Duration(ttl)*time.Second).Err(); redisErr != nil {
				c.Log.Warn("competition-usecase", redisErr.Error(), "ListPublic", publicCompetitionsKey)
			}
		}
	}

	result.Data = listing
	return result
}

func (c *CompetitionUseCase) invalidatePublicCache(ctx context.Context) {
	if c.Redis == nil {
		return
	}
	if err := c.Redis.Del(ctx, publicCompetitionsKey).Err(); err != nil {
		c.Log.Warn("competition-usecase", err.Error(), "invalidatePublicCache", publicCompetitionsKey)
	}
}

func (c *CompetitionUseCase) competitionEvent(comp *entity.Competition, awards []model.PrizeAwardMessage) *model.CompetitionEvent {
	return &model.CompetitionEvent{
		EventID:   uuid.NewString(),
		Code:      comp.Code,
		Status:    comp.Status,
		PrizePool: comp.TotalPrizePool,
		Awards:    awards,
	}
}

func (c *CompetitionUseCase) publishEvent(comp *entity.Competition, awards []model.PrizeAwardMessage) {
	c.sendEvent(c.competitionEvent(comp, awards))
}

func (c *CompetitionUseCase) sendEvent(event *model.CompetitionEvent) {
	if c.CompetitionProducer == nil || event == nil {
		return
	}
	if err := c.CompetitionProducer.Send(event); err != nil {
		c.Log.Error("competition-usecase", err.Error(), "sendEvent", event.Code)
	}
}

// mapError translates repository sentinels into CommonError responses,
// passing through errors the closures already shaped.
func (c *CompetitionUseCase) mapError(err error, scope, code string) error {
	var common *httpError.CommonError
	if errors.As(err, &common) {
		return common
	}
	switch {
	case errors.Is(err, repository.ErrCompetitionNotFound):
		errObj := httpError.NewNotFound()
		errObj.Message = "competition not found"
		return errObj
	case errors.Is(err, repository.ErrInsufficientFunds):
		errObj := httpError.NewBadRequest()
		errObj.Message = "insufficient funds"
		return errObj
	default:
		c.Log.Error("competition-usecase", err.Error(), scope, code)
		errObj := httpError.NewInternalServerError()
		errObj.Message = "internal error"
		return errObj
	}
}
