package bootstrap

import (
	"context"
	"log"

	"giga-banana-web/internal/config"
	"giga-banana-web/internal/controller"
	"giga-banana-web/internal/handler"
	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/internal/pkg/serverutils"
	"giga-banana-web/internal/pkg/token"
	"giga-banana-web/internal/repository/contract"
	"giga-banana-web/internal/repository/implementation"
	"giga-banana-web/internal/repository/memory"
	"giga-banana-web/internal/service"
	"giga-banana-web/internal/websocket"

	pkgNats "giga-banana-web/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	AuthController     controller.IAuthController
	CreationController controller.ICreationController

	EventStreamHandler *handler.EventStreamHandler
	WebSocketHub       *websocket.Hub

	// Exposed for main.go to start after the hub is running.
	EventBridge service.IEventBridgeService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	// NATS is optional in development, services degrade to no events.
	var natsPub *pkgNats.Publisher
	var natsSub *pkgNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pkgNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
		natsSub, err = pkgNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	// Redis backs the refresh allowlist and cross-instance websocket
	// delivery. Without it both fall back to single-instance behavior.
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			rdb = nil
		}
	}

	var allowlist contract.IRefreshAllowlist
	if rdb != nil {
		allowlist = implementation.NewRedisRefreshAllowlist(rdb)
	} else {
		allowlist = memory.NewRefreshAllowlist()
	}

	userRepo := implementation.NewUserRepository(db)
	creationRepo := implementation.NewCreationRepository(db)

	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	authService := service.NewAuthService(userRepo, allowlist, tokens, natsPub, sysLogger)
	creationService := service.NewCreationService(creationRepo, natsPub, sysLogger)
	eventBridge := service.NewEventBridgeService(natsSub, wsHub, wsLogger)

	var jwtMiddleware fiber.Handler = serverutils.NewJwtMiddleware(tokens)

	return &Container{
		AuthController:     controller.NewAuthController(authService, cfg.Auth.RefreshTokenTTL, cfg.Auth.CookieSecure),
		CreationController: controller.NewCreationController(creationService, jwtMiddleware),
		EventStreamHandler: handler.NewEventStreamHandler(tokens, wsHub, wsLogger),
		WebSocketHub:       wsHub,
		EventBridge:        eventBridge,
		Logger:             sysLogger,
	}
}
