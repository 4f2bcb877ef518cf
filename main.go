package main

import (
	"log"

	"github.com/atelierfoto/session-service/config"
	"github.com/atelierfoto/session-service/internal/cache"
	"github.com/atelierfoto/session-service/internal/consumer"
	"github.com/atelierfoto/session-service/internal/handler"
	"github.com/atelierfoto/session-service/internal/middleware"
	"github.com/atelierfoto/session-service/internal/repository"
	"github.com/atelierfoto/session-service/internal/service"
	"github.com/atelierfoto/session-service/pkg/database"
	"github.com/atelierfoto/session-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Repositories
	sessionRepo := repository.NewSessionRepository(db)
	detailRepo := repository.NewDetailRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// RabbitMQ: publish lifecycle events, consume catalog updates
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewCatalogConsumer(catalogRepo).Start(msgs)

	// Redis snapshot cache; nil (disabled) when REDIS_ADDR is unset
	snapshots := cache.New(cfg.RedisAddr)

	// Services
	checker := service.NewAvailabilityChecker(sessionRepo, assignmentRepo, roomRepo, userRepo)
	sessionSvc := service.NewSessionService(
		sessionRepo, detailRepo, assignmentRepo, paymentRepo, historyRepo, userRepo,
		checker, service.DefaultRefundPolicy, cfg, publisher, snapshots,
	)
	assignmentSvc := service.NewAssignmentService(sessionRepo, assignmentRepo, checker, sessionSvc, snapshots)
	detailSvc := service.NewDetailService(sessionRepo, detailRepo, paymentRepo, catalogRepo, snapshots)
	paymentSvc := service.NewPaymentService(sessionRepo, paymentRepo, detailRepo, publisher, snapshots)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "session-service"})
	})

	api := e.Group("/api/v1", middleware.Identity(cfg.JWTSecret, userRepo))
	handler.NewSessionHandler(sessionSvc, checker).RegisterRoutes(api)
	handler.NewAssignmentHandler(assignmentSvc).RegisterRoutes(api)
	handler.NewPaymentHandler(paymentSvc, detailSvc).RegisterRoutes(api)

	log.Printf("Session Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
