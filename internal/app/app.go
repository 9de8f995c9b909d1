package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mentorhub_backend/database"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/handlers"
	"mentorhub_backend/internal/logger"
	"mentorhub_backend/internal/presence"
	"mentorhub_backend/internal/repositories"
	repoChat "mentorhub_backend/internal/repositories/chat"
	"mentorhub_backend/internal/routes"
	"mentorhub_backend/internal/services"
	serviceschat "mentorhub_backend/internal/services/chat"
	"mentorhub_backend/internal/validator"
	"mentorhub_backend/ws"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services, the socket manager, and routes
// onto a gin engine. Split out from Run so tests can stand up the full stack
// against their own database handle.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	// Repositories.
	userRepo := repositories.NewUserRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	conversationRepo := repoChat.NewConversationRepository(gormDB)
	messageRepo := repoChat.NewMessageRepository(gormDB)
	reactionRepo := repoChat.NewMessageReactionRepository(gormDB)
	receiptRepo := repoChat.NewMessageReadReceiptRepository(gormDB)

	// Presence backend: redis when configured, otherwise in-process.
	presenceStore := newPresenceStore(cfg)

	// Services.
	chatService := serviceschat.NewChatService(conversationRepo, messageRepo, receiptRepo)
	reactionService := serviceschat.NewReactionService(reactionRepo, messageRepo, conversationRepo)

	// Socket manager. It doubles as the notification pusher, so the
	// notification service is built after it.
	manager := ws.NewManager(presenceStore, conversationRepo, cfg.WebSocket.SendQueueSize)
	go manager.Run()

	notificationService := services.NewNotificationService(notificationRepo, userRepo, manager)

	typing := ws.NewTypingCoordinator(cfg.TypingTTL(), func(roomID, userID string) {
		manager.BroadcastToRoom(roomID, ws.EventStopTyping, ws.TypingPayload{
			RoomID: roomID,
			UserID: userID,
		}, userID)
	})

	wsHandler := ws.NewHandler(cfg, manager, chatService, reactionService, notificationService, typing)

	// HTTP handlers.
	base := handlers.NewBaseHandler(validator.New())
	appHandlers := &handlers.AppHandlers{
		ChatHandler:         handlers.NewChatHandler(base, chatService, reactionService),
		NotificationHandler: handlers.NewNotificationHandler(base, notificationService),
		EventHandler:        handlers.NewEventHandler(base, notificationService),
	}

	go runNotificationRetention(notificationService, cfg.Notifications.RetentionDays)

	ginRouter := newGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)
	return ginRouter
}

// runNotificationRetention deletes notifications older than the configured
// window, once at startup and then daily.
func runNotificationRetention(svc services.NotificationService, days int) {
	for {
		deleted, err := svc.CleanOldNotifications(days)
		if err != nil {
			logger.Error("notification retention sweep failed", "error", err)
		} else if deleted > 0 {
			logger.Info("notification retention sweep", "deleted", deleted, "days", days)
		}
		time.Sleep(24 * time.Hour)
	}
}

func newPresenceStore(cfg *config.Config) presence.Store {
	if !cfg.Redis.Enabled {
		logger.Info("Presence store: in-memory")
		return presence.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("Presence store: redis", "addr", cfg.Redis.Addr)
	return presence.NewRedisStore(client, cfg.Redis.Prefix)
}

func newGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}
