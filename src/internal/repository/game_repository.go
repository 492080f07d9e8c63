package repository

import (
	"context"
	"errors"

	"competition-service/src/internal/entity"
	"competition-service/src/pkg/databases/mysql"

	"gorm.io/gorm"
)

type GameRepository struct {
	DB mysql.DBInterface
}

func NewGameRepository(db mysql.DBInterface) *GameRepository {
	return &GameRepository{
		DB: db,
	}
}

func (r *GameRepository) FindByID(ctx context.Context, id string) (*entity.Game, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}

	var game entity.Game
	err = gormDB.WithContext(ctx).Where("id = ?", id).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}
