package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"bodygoal/internal/auth"
	"bodygoal/internal/config"
	"bodygoal/internal/db"
	"bodygoal/internal/handlers"
	"bodygoal/internal/llm"
	"bodygoal/internal/media"
	"bodygoal/internal/middleware"
	"bodygoal/internal/observability"
	"bodygoal/internal/presence"
	"bodygoal/internal/rabbitmq"
	"bodygoal/internal/realtime"
	"bodygoal/internal/repositories"
	"bodygoal/internal/telemetry"
	"bodygoal/internal/ws"
)

const serviceName = "bodygoal"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	storage, err := media.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB, cfg.PublicBaseURL)
	cancelConnect()
	if err != nil {
		log.Fatalf("failed to connect to media storage: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "audit.bodygoal", serviceName, cfg.Environment)

	if cfg.AMQPURL != "" {
		wsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			defer wsPublisher.Close()
			observability.SetPublisher(wsPublisher)
		}
	}

	feed := realtime.NewFeed()
	var events realtime.Publisher = feed
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		bridge := realtime.NewBridge(feed, rdb)
		go bridge.Run(ctx)
		events = bridge
	}

	userRepo := repositories.NewUserRepo(database)
	profileRepo := repositories.NewProfileRepo(database)
	presenceRepo := repositories.NewPresenceRepo(database)
	friendRepo := repositories.NewFriendshipRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	weightRepo := repositories.NewWeightRepo(database)
	planRepo := repositories.NewMealPlanRepo(database)

	authService := auth.NewService(cfg.JWTSecret)
	llmClient := llm.NewClient(cfg.OpenRouterKey, cfg.OpenRouterModel)

	reconciler := presence.NewReconciler(presenceRepo, events)
	go reconciler.Run(ctx)

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(userRepo, authService, audit)
	profileHandler := handlers.NewProfileHandler(profileRepo, storage, events)
	calculatorHandler := handlers.NewCalculatorHandler()
	weightHandler := handlers.NewWeightHandler(weightRepo)
	plannerHandler := handlers.NewPlannerHandler(planRepo, profileRepo, llmClient, audit)
	photoHandler := handlers.NewPhotoHandler(llmClient)
	friendHandler := handlers.NewFriendHandler(friendRepo, audit)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, profileRepo, friendRepo, storage, events)
	presenceHandler := handlers.NewPresenceHandler(presenceRepo, events)
	mediaHandler := handlers.NewMediaHandler(storage)

	chatWS := ws.NewChatWebSocketHandler(hub, authService, chatRepo, messageRepo, profileRepo, feed)
	presenceWS := ws.NewPresenceWebSocketHandler(hub, authService, presenceRepo, feed, events)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", handlers.Healthz(database))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	authMiddleware := middleware.AuthMiddleware(authService)

	authed := router.Group("/", authMiddleware)

	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile", profileHandler.Update)
	authed.POST("/profile/avatar", profileHandler.UploadAvatar)
	authed.GET("/profiles/search", profileHandler.Search)

	authed.POST("/calculator", calculatorHandler.Calculate)

	authed.POST("/weights", weightHandler.Create)
	authed.GET("/weights", weightHandler.List)
	authed.DELETE("/weights/:record_id", weightHandler.Delete)

	authed.POST("/plans", plannerHandler.Create)
	authed.POST("/plans/generate", plannerHandler.Generate)
	authed.GET("/plans", plannerHandler.List)
	authed.GET("/plans/:plan_id", plannerHandler.Get)
	authed.DELETE("/plans/:plan_id", plannerHandler.Delete)

	authed.POST("/photo/analyze", photoHandler.Analyze)

	authed.POST("/friends/requests", friendHandler.SendRequest)
	authed.POST("/friends/requests/:friendship_id/respond", friendHandler.Respond)
	authed.POST("/friends/:friendship_id/block", friendHandler.Block)
	authed.DELETE("/friends/:friendship_id", friendHandler.Unfriend)
	authed.GET("/friends", friendHandler.ListFriends)
	authed.GET("/friends/requests", friendHandler.ListPending)
	authed.GET("/friends/requests/sent", friendHandler.ListSent)

	authed.GET("/chats", chatHandler.ListChats)
	authed.POST("/chats/start", chatHandler.StartChat)
	authed.GET("/chats/:chat_id/messages", chatHandler.GetChatMessages)
	authed.POST("/chats/:chat_id/messages", chatHandler.PostChatMessage)
	authed.POST("/chats/:chat_id/media", chatHandler.PostChatMedia)
	authed.PUT("/chats/:chat_id/messages/:message_id", chatHandler.EditMessage)
	authed.DELETE("/chats/:chat_id/messages/:message_id", chatHandler.DeleteMessage)

	authed.POST("/presence/heartbeat", presenceHandler.Heartbeat)
	authed.POST("/presence/offline", presenceHandler.Offline)
	authed.GET("/presence/status", presenceHandler.Status)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/ws/presence", presenceWS.Handle)

	router.GET("/media/:file_id", mediaHandler.Download)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
