package config

import (
	"competition-service/src/internal/entity"
	"competition-service/src/pkg/databases/mysql"
	"competition-service/src/pkg/log"

	"github.com/spf13/viper"
)

func NewDatabase(viper *viper.Viper, log log.Log) mysql.DBInterface {
	db, err := mysql.InitConnection(viper, log)
	if err != nil {
		log.Error("database init", err.Error(), "config", "")
		panic(err)
	}

	if viper.GetBool("mysql.auto_migrate") {
		gormDB, err := db.GetGorm()
		if err != nil {
			panic(err)
		}
		err = gormDB.AutoMigrate(
			&entity.Wallet{},
			&entity.Transaction{},
			&entity.PendingTransaction{},
			&entity.PayoutTransaction{},
			&entity.Game{},
			&entity.Competition{},
			&entity.CompetitionPlayer{},
		)
		if err != nil {
			log.Error("database migrate", err.Error(), "config", "")
			panic(err)
		}
	}

	return db
}
