package config

import (
	"competition-service/src/internal/delivery/http"
	"competition-service/src/internal/delivery/http/middleware"
	"competition-service/src/internal/delivery/http/route"
	"competition-service/src/internal/gateway/messaging"
	"competition-service/src/internal/gateway/mpesa"
	"competition-service/src/internal/repository"
	"competition-service/src/internal/usecase"
	"competition-service/src/pkg/databases/mysql"
	kafkaPkgConfluent "competition-service/src/pkg/kafka/confluent"
	"competition-service/src/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type BootstrapConfig struct {
	DB          mysql.DBInterface
	App         *fiber.App
	Log         log.Log
	Validate    *validator.Validate
	Config      *viper.Viper
	Producer    kafkaPkgConfluent.Producer
	Redis       redis.UniversalClient
	AsynqClient *asynq.Client
	Async       *asynq.ServeMux
}

// Bootstrap wires repositories, usecases, controllers and routes. The
// competition usecase is returned so the scheduler sweeps can be attached.
func Bootstrap(config *BootstrapConfig) *usecase.CompetitionUseCase {
	// setup repositories
	walletRepository := repository.NewWalletRepository(config.DB)
	paymentRepository := repository.NewPaymentRepository(config.DB)
	competitionRepository := repository.NewCompetitionRepository(config.DB)
	gameRepository := repository.NewGameRepository(config.DB)

	// setup gateways
	gateway := mpesa.NewClient(mpesa.LoadConfig(config.Config), config.Log)
	paymentProducer := messaging.NewPaymentProducer(config.Producer, config.Log)
	competitionProducer := messaging.NewCompetitionProducer(config.Producer, config.Log)

	// setup use cases
	walletUseCase := usecase.NewWalletUseCase(
		config.Log,
		config.Validate,
		walletRepository,
	)
	paymentUseCase := usecase.NewPaymentUseCase(
		config.Log,
		config.Validate,
		config.Config,
		paymentRepository,
		gateway,
		config.AsynqClient,
		paymentProducer,
	)
	competitionUseCase := usecase.NewCompetitionUseCase(
		config.Log,
		config.Validate,
		config.Config,
		competitionRepository,
		gameRepository,
		config.Redis,
		competitionProducer,
	)

	// setup controllers
	walletController := http.NewWalletController(walletUseCase, config.Log)
	paymentController := http.NewPaymentController(paymentUseCase, config.Log)
	competitionController := http.NewCompetitionController(competitionUseCase, config.Log)

	// setup middleware
	authMiddleware := middleware.VerifyBearer(config.Config)

	config.Async.HandleFunc(usecase.TaskTypeStatusCheck, paymentUseCase.HandleStatusCheckTask)

	routeConfig := route.RouteConfig{
		App:                   config.App,
		WalletController:      walletController,
		PaymentController:     paymentController,
		CompetitionController: competitionController,
		AuthMiddleware:        authMiddleware,
	}
	routeConfig.Setup()

	return competitionUseCase
}
