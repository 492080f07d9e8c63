package repository

import (
	"context"
	"errors"
	"time"

	"competition-service/src/internal/entity"
	"competition-service/src/pkg/databases/mysql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompetitionRepository struct {
	DB mysql.DBInterface
}

func NewCompetitionRepository(db mysql.DBInterface) *CompetitionRepository {
	return &CompetitionRepository{
		DB: db,
	}
}

type competitionTxScope struct {
	ledgerScope
	competitionID string
}

func (s competitionTxScope) Players() ([]entity.CompetitionPlayer, error) {
	var players []entity.CompetitionPlayer
	err := s.tx.
		Where("competition_id = ?", s.competitionID).
		Order("joined_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (s competitionTxScope) SaveCompetition(c *entity.Competition) error {
	return s.tx.Save(c).Error
}

func (s competitionTxScope) InsertPlayer(p *entity.CompetitionPlayer) error {
	return s.tx.Create(p).Error
}

func (s competitionTxScope) SavePlayer(p *entity.CompetitionPlayer) error {
	return s.tx.Save(p).Error
}

func (s competitionTxScope) DeletePlayer(p *entity.CompetitionPlayer) error {
	return s.tx.Delete(p).Error
}

func (s competitionTxScope) DeleteCompetition(c *entity.Competition) error {
	err := s.tx.
		Where("competition_id = ?", c.ID).
		Delete(&entity.CompetitionPlayer{}).Error
	if err != nil {
		return err
	}
	return s.tx.Delete(c).Error
}

func (s competitionTxScope) FindGame(id string) (*entity.Game, error) {
	var game entity.Game
	err := s.tx.Where("id = ?", id).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *CompetitionRepository) CreateCompetition(ctx context.Context, comp *entity.Competition, fn func(scope CompetitionScope) error) error {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comp).Error; err != nil {
			return err
		}
		return fn(competitionTxScope{
			ledgerScope:   ledgerScope{tx: tx},
			competitionID: comp.ID,
		})
	})
}

// WithCompetitionByCode locks the competition row for the whole unit so that
// join, leave, score submission, settlement and expiry serialize per
// competition.
func (r *CompetitionRepository) WithCompetitionByCode(ctx context.Context, code string, fn func(scope CompetitionScope, comp *entity.Competition) error) error {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comp entity.Competition
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&comp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompetitionNotFound
		}
		if err != nil {
			return err
		}
		return fn(competitionTxScope{
			ledgerScope:   ledgerScope{tx: tx},
			competitionID: comp.ID,
		}, &comp)
	})
}

func (r *CompetitionRepository) FindByCode(ctx context.Context, code string) (*entity.Competition, []entity.CompetitionPlayer, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, nil, err
	}

	var comp entity.Competition
	err = gormDB.WithContext(ctx).Where("code = ?", code).First(&comp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrCompetitionNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var players []entity.CompetitionPlayer
	err = gormDB.WithContext(ctx).
		Where("competition_id = ?", comp.ID).
		Order("joined_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, nil, err
	}
	return &comp, players, nil
}

func (r *CompetitionRepository) ListPublic(ctx context.Context, limit int) ([]entity.Competition, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var comps []entity.Competition
	err = gormDB.WithContext(ctx).
		Where("privacy = ? AND status IN ?", entity.CompetitionPrivacyPublic,
			[]string{entity.CompetitionStatusUpcoming, entity.CompetitionStatusOngoing}).
		Order("starts_at ASC").
		Limit(limit).
		Find(&comps).Error
	if err != nil {
		return nil, err
	}
	return comps, nil
}

func (r *CompetitionRepository) ListCodesDueToStart(ctx context.Context, now time.Time, limit int) ([]string, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var codes []string
	err = gormDB.WithContext(ctx).Model(&entity.Competition{}).
		Where("status = ? AND starts_at <= ?", entity.CompetitionStatusUpcoming, now).
		Order("starts_at ASC").
		Limit(limit).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *CompetitionRepository) ListCodesOverdue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var codes []string
	err = gormDB.WithContext(ctx).Model(&entity.Competition{}).
		Where("status IN ? AND ends_at <= ?",
			[]string{entity.CompetitionStatusUpcoming, entity.CompetitionStatusOngoing}, now).
		Order("ends_at ASC").
		Limit(limit).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
