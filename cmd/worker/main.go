package main

import (
	"time"

	"go.uber.org/zap"

	"dassyor/config"
	"dassyor/internal/db"
	"dassyor/internal/llm"
	"dassyor/internal/mailer"
	"dassyor/internal/mq"
	"dassyor/internal/mqhandler"
	"dassyor/internal/repository"
	"dassyor/internal/search"
	"dassyor/internal/service/idea"
	"dassyor/internal/util"
	"dassyor/pkg/logger"
	redisclient "dassyor/pkg/redis"
)

const searchQueueName = "idea.search.q"

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting worker service...")

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, 24*time.Hour)
	retries := util.NewRetryCounter(rdb, time.Hour)

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	taskRepo := repository.NewSearchTaskRepository(dbConn)
	searcher := search.NewClient(cfg.Search)
	llmClient := llm.NewClient(cfg.OpenAI)
	mail := mailer.NewSMTPMailer(cfg.SMTP, log)

	pipeline := idea.NewService(taskRepo, searcher, llmClient, mail, cfg.App.Name, log)
	searchHandler := mqhandler.NewSearchRequestedHandler(pipeline, deduper, log)

	consumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		searchQueueName,
		mq.RoutingKeySearchRequested,
		publisher,
		retries,
		cfg.Worker.MaxRetries,
		log,
	)
	if err != nil {
		log.Fatal("failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	consumer.SetHandler(searchHandler.Handle)
	consumer.SetDeadLetterHook(searchHandler.OnDeadLetter)

	go func() {
		log.Info("Starting search consumer", zap.String("queue", searchQueueName))
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("search consumer failed", zap.Error(err))
		}
	}()

	log.Info("Worker ready to process messages")
	select {}
}
