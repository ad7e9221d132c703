package main

import (
	"context"

	"go.uber.org/zap"

	"dassyor/config"
	"dassyor/internal/db"
	"dassyor/internal/handler"
	"dassyor/internal/httpserver"
	"dassyor/internal/mq"
	"dassyor/internal/repository"
	"dassyor/pkg/logger"
	"dassyor/pkg/outbox"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	taskRepo := repository.NewSearchTaskRepository(dbConn)
	outboxRepo := outbox.NewRepository(dbConn)

	// Outbox dispatcher pushes committed events to the broker.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Run(ctx)

	ideaHandler := handler.NewIdeaHandler(taskRepo, outboxRepo, log)
	router := httpserver.NewIdeaRouter(ideaHandler, cfg.App.TasksAccessPassword, dbConn)

	log.Info("Starting idea API", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
