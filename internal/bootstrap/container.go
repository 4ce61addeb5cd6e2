package bootstrap

import (
	"context"
	"log"

	"kiwi-assistant-core/internal/config"
	"kiwi-assistant-core/internal/controller"
	"kiwi-assistant-core/internal/gateway"
	"kiwi-assistant-core/internal/pkg/logger"
	"kiwi-assistant-core/internal/repository/contract"
	"kiwi-assistant-core/internal/repository/implementation"
	"kiwi-assistant-core/internal/repository/memory"
	"kiwi-assistant-core/internal/service"
	"kiwi-assistant-core/internal/websocket"

	pktNats "kiwi-assistant-core/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	ChatController    controller.IChatController
	DatasetController controller.IDatasetController

	// Background Services (Exposed for main.go to run)
	NotifierService service.INotifierService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS is optional; the session service tolerates a nil publisher.
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// State store: Redis when configured and reachable, in-memory otherwise.
	var stateRepo contract.IStateRepository
	if cfg.Storage.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Storage.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-memory state store", err)
			stateRepo = memory.NewStateRepository(cfg.Storage.KeyPrefix)
		} else {
			stateRepo = implementation.NewRedisStateRepository(rdb, cfg.Storage.KeyPrefix, sysLogger)
		}
	} else {
		stateRepo = memory.NewStateRepository(cfg.Storage.KeyPrefix)
	}

	// Gateway: canned mock until a real backend is deployed.
	var gw gateway.IGateway
	if cfg.Gateway.Mode == "http" {
		gw = gateway.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
		log.Printf("[INFO] Using Gateway: HTTP (%s)", cfg.Gateway.BaseURL)
	} else {
		latency := gateway.DefaultMockLatency()
		if cfg.Dataset.Instant {
			latency = gateway.MockLatency{}
		}
		gw = gateway.NewMockGateway(latency)
		log.Printf("[INFO] Using Gateway: MOCK")
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.StateTopicName)
	notifierService := service.NewNotifierService(pubSub, cfg.App.StateTopicName, wsHub, wsLogger)

	chatService := service.NewChatService(stateRepo, gw, publisherService, sysLogger)
	sessionService := service.NewSessionService(
		stateRepo,
		chatService,
		gw,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenExpiry,
	)

	timings := service.DefaultTimings()
	if cfg.Dataset.Instant {
		timings = service.InstantTimings()
	}
	datasetService := service.NewDatasetService(chatService, gw, timings, sysLogger)

	// 4. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(sessionService),
		ChatController:    controller.NewChatController(chatService),
		DatasetController: controller.NewDatasetController(datasetService),
		NotifierService:   notifierService,
		WebSocketHub:      wsHub,
	}
}
