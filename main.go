package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/tanawat-p/openhouse-queue/config"
	"github.com/tanawat-p/openhouse-queue/internal/handler"
	"github.com/tanawat-p/openhouse-queue/internal/ledger"
	"github.com/tanawat-p/openhouse-queue/internal/middleware"
	"github.com/tanawat-p/openhouse-queue/internal/notify"
	"github.com/tanawat-p/openhouse-queue/internal/repository"
	"github.com/tanawat-p/openhouse-queue/internal/service"
	"github.com/tanawat-p/openhouse-queue/pkg/database"
	"github.com/tanawat-p/openhouse-queue/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Change feed: observers (dashboard, tenant views) subscribe and re-fetch;
	// the broker being down degrades to polling, never blocks the service.
	var notifier notify.Notifier = notify.NopNotifier{}
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Printf("failed to connect to RabbitMQ, change feed disabled: %v", err)
	} else {
		defer publisher.Close()
		notifier = notify.NewRabbitNotifier(publisher)
	}

	// Repositories
	propertyRepo := repository.NewPropertyRepository(db)
	eventRepo := repository.NewEventRepository(db)
	entryRepo := repository.NewEntryRepository(db)

	// Core
	posLedger := ledger.New(db, eventRepo, entryRepo)
	eventSvc := service.NewEventService(eventRepo, propertyRepo, notifier)
	queueSvc := service.NewQueueService(posLedger, entryRepo, eventRepo, eventSvc, notifier)

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
		return c.JSON(200, map[string]string{"status": "ok", "service": "openhouse-queue"})
	})

	handler.NewEventHandler(eventSvc).RegisterRoutes(e)
	handler.NewQueueHandler(queueSvc).RegisterRoutes(e)

	log.Printf("Open House Queue Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
