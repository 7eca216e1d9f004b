package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"employee-assistant/cmd/backend/agent"
	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/router"
	"employee-assistant/cmd/backend/services"
	"employee-assistant/cmd/internal/eventbus"
	"employee-assistant/cmd/internal/logger"
	"employee-assistant/config"
	"employee-assistant/db"
	"employee-assistant/repositories"
)

type stores struct {
	conversations services.ConversationStore
	documents     services.DocumentStore
	answerLogs    services.AnswerLogStore
	publisher     eventbus.Publisher
	health        func(ctx context.Context) error
	close         func()
}

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "backend")
	}
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := cfg.Backend.JWTSecret
	if secret == "" {
		// 재시작하면 기존 토큰은 모두 무효가 된다.
		secret = uuid.NewString()
		logger.WarnWithFields("JWT_SECRET is not set, using an ephemeral secret", nil)
	}
	jwtManager, err := auth.NewJWTManager(secret, cfg.Backend.JWTIssuer, cfg.Backend.TokenTTL)
	if err != nil {
		logger.ErrorWithFields("failed to create jwt manager", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.ErrorWithFields("failed to initialize storage", logger.Fields{"storage": cfg.Backend.Storage, "error": err.Error()})
		os.Exit(1)
	}
	defer st.close()

	answerer := newAnswerer(ctx, cfg.Gemini)
	if q := cfg.Backend.AnswerQuota; q.RequestsPerMinute > 0 || q.RequestsPerDay > 0 {
		answerer = agent.NewQuotaAnswerer(answerer, agent.NewQuotaLimiter(q.RequestsPerMinute, q.RequestsPerDay))
	}

	engine := router.New(router.Deps{
		JWT:            jwtManager,
		Chat:           services.NewChatService(answerer, st.conversations, st.answerLogs, cfg.Backend.AnswerRetries, cfg.Backend.AnswerBackoff),
		Conversations:  services.NewConversationService(st.conversations, cfg.Backend.HistoryLimit),
		Uploads:        services.NewUploadService(st.documents, st.publisher, cfg.Kafka.UploadTopic),
		Tokens:         services.NewTokenService(jwtManager, cfg.Backend.DevUsers),
		AllowedOrigins: cfg.Backend.AllowedOrigins,
		Health:         st.health,
	})

	srv := &http.Server{Addr: cfg.Backend.Addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.InfoWithFields("backend listening", logger.Fields{
			"addr":     cfg.Backend.Addr,
			"storage":  cfg.Backend.Storage,
			"answerer": answerer.Name(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithFields("http server stopped", logger.Fields{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	logger.InfoWithFields("received shutdown signal, shutting down backend...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("http server shutdown failed", logger.Fields{"error": err.Error()})
	}
	logger.InfoWithFields("backend stopped", nil)
}

func openStores(ctx context.Context, cfg config.AppConfig) (*stores, error) {
	if cfg.Backend.Storage == "memory" {
		mem := services.NewMemoryStore()
		return &stores{
			conversations: mem,
			documents:     services.MemoryDocuments{MemoryStore: mem},
			answerLogs:    services.MemoryAnswerLogs{MemoryStore: mem},
			close:         func() {},
		}, nil
	}

	if err := db.Init(ctx, cfg.Mongo); err != nil {
		return nil, err
	}
	database := db.Database()
	st := &stores{
		conversations: repositories.NewConversationRepository(database),
		documents:     repositories.NewDocumentRepository(database),
		answerLogs:    repositories.NewAnswerLogRepository(database),
		health: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
	}

	topic := eventbus.NewTopic(cfg.Kafka.UploadTopic)
	if err := eventbus.EnsureTopics(ctx, cfg.Kafka.Brokers, topic, 3); err != nil {
		logger.WarnWithFields("failed to ensure eventbus topics", logger.Fields{"topic": topic.Base(), "error": err.Error()})
	}
	bus, err := eventbus.NewKafkaEventBus(cfg.Kafka.Brokers)
	if err != nil {
		// 업로드는 저장까지만 하고 ingestion 이벤트는 남기지 않는다.
		logger.ErrorWithFields("failed to create event bus, uploads will not be ingested", logger.Fields{"error": err.Error()})
	} else {
		st.publisher = bus
	}

	st.close = func() {
		if bus != nil {
			bus.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Disconnect(ctx); err != nil {
			logger.WarnWithFields("mongo disconnect failed", logger.Fields{"error": err.Error()})
		}
	}
	return st, nil
}

func newAnswerer(ctx context.Context, cfg config.GeminiConfig) agent.Answerer {
	if cfg.APIKey == "" {
		logger.WarnWithFields("GEMINI_API_KEY is not set, answering with echo", nil)
		return agent.EchoAnswerer{}
	}
	g, err := agent.NewGeminiAnswerer(ctx, cfg.APIKey, cfg.Model, cfg.SystemInstruction)
	if err != nil {
		logger.ErrorWithFields("failed to create gemini client, answering with echo", logger.Fields{"error": err.Error()})
		return agent.EchoAnswerer{}
	}
	return g
}
