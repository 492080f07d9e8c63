package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

func NewViper() *viper.Viper {
	config := viper.New()
	config.SetConfigName("config")
	config.SetConfigType("json")
	config.AddConfigPath("./")
	config.AddConfigPath("./../")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	// Missing config file is fine; env vars and defaults carry the rest.
	_ = config.ReadInConfig()
	return config
}

func NewFiber(config *viper.Viper) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      config.GetString("app.name"),
		ReadTimeout:  config.GetDuration("web.read_timeout"),
		WriteTimeout: config.GetDuration("web.write_timeout"),
	})
}

func NewValidator(config *viper.Viper) *validator.Validate {
	return validator.New()
}
