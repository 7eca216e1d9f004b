package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"employee-assistant/cmd/ingestor/handlers"
	"employee-assistant/cmd/internal/eventbus"
	"employee-assistant/cmd/internal/logger"
	"employee-assistant/config"
	"employee-assistant/db"
	"employee-assistant/repositories"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "ingestor")
	}
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Init(ctx, cfg.Mongo); err != nil {
		logger.ErrorWithFields("failed to initialize MongoDB", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_ = db.Disconnect(dctx)
	}()

	topic := eventbus.NewTopic(cfg.Kafka.UploadTopic)
	if err := eventbus.EnsureTopics(ctx, cfg.Kafka.Brokers, topic, 3); err != nil {
		logger.WarnWithFields("failed to ensure eventbus topics", logger.Fields{"topic": topic.Base(), "error": err.Error()})
	}

	bus, err := eventbus.NewKafkaEventBus(cfg.Kafka.Brokers)
	if err != nil {
		logger.ErrorWithFields("failed to create event bus", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer bus.Close()

	h := handlers.NewEventHandlers(repositories.NewIngestionJobRepository(db.Database()), cfg.Ingestion.KnowledgeBases)
	groupID := cfg.Kafka.GroupID + ".ingestor"

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorWithFields("eventbus runner stopped", logger.Fields{"runner": name, "error": err.Error()})
			}
		}()
	}

	run("subscribe", func() error {
		return bus.Subscribe(ctx, groupID, topic, h.Dispatch)
	})
	// 재시도 토픽 -> 기본 토픽
	run("reinjector", func() error {
		return bus.StartRetryReinjector(ctx, groupID+".retry", topic)
	})

	logger.InfoWithFields("ingestor started", logger.Fields{"topic": topic.Base(), "group_id": groupID})

	<-sigChan
	logger.InfoWithFields("received shutdown signal, shutting down ingestor...", nil)

	cancel()
	wg.Wait()

	logger.InfoWithFields("ingestor stopped", nil)
}
