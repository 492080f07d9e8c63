package mysql

import (
	"errors"
	"fmt"
	"time"

	"competition-service/src/pkg/log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DBInterface exposes the two handles repositories work with: gorm for
// entity writes and locking transactions, sqlx (same underlying pool) for
// raw reporting queries.
type DBInterface interface {
	GetDB() (*sqlx.DB, error)
	GetGorm() (*gorm.DB, error)
}

type Database struct {
	gormDB *gorm.DB
	sqlxDB *sqlx.DB
}

func InitConnection(v *viper.Viper, logger log.Log) (DBInterface, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		v.GetString("mysql.username"),
		v.GetString("mysql.password"),
		v.GetString("mysql.host"),
		v.GetInt("mysql.port"),
		v.GetString("mysql.database"),
	)

	gormDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("mysql-init", err.Error(), "InitConnection", "")
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(v.GetInt("mysql.max_open_conns"))
	sqlDB.SetMaxIdleConns(v.GetInt("mysql.max_idle_conns"))
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		logger.Error("mysql-init", err.Error(), "Ping", "")
		return nil, err
	}

	return &Database{
		gormDB: gormDB,
		sqlxDB: sqlx.NewDb(sqlDB, "mysql"),
	}, nil
}

func (d *Database) GetDB() (*sqlx.DB, error) {
	if d == nil || d.sqlxDB == nil {
		return nil, errors.New("mysql connection is not initialized")
	}
	return d.sqlxDB, nil
}

func (d *Database) GetGorm() (*gorm.DB, error) {
	if d == nil || d.gormDB == nil {
		return nil, errors.New("mysql connection is not initialized")
	}
	return d.gormDB, nil
}
