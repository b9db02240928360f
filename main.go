package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"littlelemon/internal/config"
	"littlelemon/internal/database"
	"littlelemon/internal/logger"
	"littlelemon/internal/server"
	"littlelemon/internal/services"
	"littlelemon/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

// run owns every resource it opens so deferred cleanup happens before main
// exits on an error.
func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(cfg.AppEnv); err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, log, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()
	if err := database.Prepare(ctx, db); err != nil {
		return fmt.Errorf("failed to prepare database: %w", err)
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return fmt.Errorf("failed to initialise RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		if cfg.OrderEventsConsumer {
			err := mqClient.ConsumeOrderEvents(ctx, func(msg amqp.Delivery) error {
				return services.LogOrderEvent(msg.RoutingKey, msg.Body)
			})
			if err != nil {
				return fmt.Errorf("failed to start order event consumer: %w", err)
			}
		}
	} else {
		log.Info("RABBITMQ_URL not set, order events are disabled")
	}

	app := server.NewApp(cfg, db, publisher, log)

	// --- Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.AppEnv))
		serverErr <- app.Listen(cfg.AppPort)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server stopped: %w", err)
		}
	}

	if err := app.Shutdown(); err != nil {
		log.Error("error during Fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return runErr
}
