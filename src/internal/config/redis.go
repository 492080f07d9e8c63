package config

import (
	redisModule "competition-service/src/pkg/redis"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

func LoadRedisConfig(viper *viper.Viper) {
	cfgRedis := &redisModule.CfgRedis{
		EnableTLS: viper.GetBool("redis.enable_tls"),
		Host:      viper.GetString("redis.host"),
		Port:      viper.GetString("redis.port"),
		Password:  viper.GetString("redis.password"),
		DB:        viper.GetInt("redis.db"),
	}
	redisModule.LoadConfig(cfgRedis)
	redisModule.InitConnection()
}

func NewRedis() redis.UniversalClient {
	return redisModule.GetClient()
}
