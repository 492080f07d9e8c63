package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"competition-service/src/internal/config"
	"competition-service/src/internal/delivery/http/middleware"
	"competition-service/src/pkg/log"

	"github.com/hibiken/asynq"
)

func main() {
	viperConfig := config.NewViper()
	viperConfig.SetDefault("log.level", "DEBUG")
	viperConfig.SetDefault("app.name", "COMPETITION_SERVICE")
	viperConfig.SetDefault("web.port", 8080)
	viperConfig.SetDefault("payment.max_status_checks", 5)
	viperConfig.SetDefault("payment.rescue_window_minutes", 10)
	viperConfig.SetDefault("payment.status_check_delay_seconds", 30)
	viperConfig.SetDefault("scheduler.activate_interval", "1m")
	viperConfig.SetDefault("scheduler.expire_interval", "5m")

	log.InitLogger(viperConfig)
	logger := log.GetLogger()

	config.NewKafkaConfig(viperConfig)
	config.LoadRedisConfig(viperConfig)
	db := config.NewDatabase(viperConfig, logger)
	redisClient := config.NewRedis()
	producer := config.NewKafkaProducer(viperConfig, logger)
	validate := config.NewValidator(viperConfig)
	asynqClient := config.NewAsynqClient(viperConfig)
	asynqServer := config.NewAsynqServer(viperConfig)
	asynqMux := asynq.NewServeMux()

	app := config.NewFiber(viperConfig)
	app.Use(middleware.NewLogger())

	competitionUseCase := config.Bootstrap(&config.BootstrapConfig{
		DB:          db,
		App:         app,
		Log:         logger,
		Validate:    validate,
		Config:      viperConfig,
		Producer:    producer,
		Redis:       redisClient,
		AsynqClient: asynqClient,
		Async:       asynqMux,
	})

	scheduler, err := config.NewScheduler(viperConfig, competitionUseCase, logger)
	if err != nil {
		logger.Error("main", fmt.Sprintf("Failed to build scheduler: %v", err), "main", "")
		os.Exit(1)
	}
	scheduler.Start()

	go func() {
		if err := asynqServer.Run(asynqMux); err != nil {
			logger.Error("main", fmt.Sprintf("Asynq server stopped: %v", err), "main", "")
		}
	}()

	go func() {
		webPort := viperConfig.GetInt("web.port")
		if err := app.Listen(fmt.Sprintf(":%d", webPort)); err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start server: %v", err), "main", "")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("main", "Server competition-service is shutting down...", "graceful", "")

	if err := scheduler.Shutdown(); err != nil {
		logger.Error("main", fmt.Sprintf("Error stopping scheduler: %v", err), "graceful", "")
	}
	asynqServer.Shutdown()
	if err := asynqClient.Close(); err != nil {
		logger.Error("main", fmt.Sprintf("Error closing asynq client: %v", err), "graceful", "")
	}
	if producer != nil {
		producer.Close()
	}
	if err := app.Shutdown(); err != nil {
		logger.Error("main", fmt.Sprintf("Error during shutdown: %v", err), "graceful", "")
	}

	logger.Info("main", fmt.Sprintf("Server %s stopped", viperConfig.GetString("app.name")), "graceful", "")
}
