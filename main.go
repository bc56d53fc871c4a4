package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"team-chat-service/internal/auth"
	"team-chat-service/internal/broker"
	"team-chat-service/internal/config"
	"team-chat-service/internal/db"
	"team-chat-service/internal/handlers"
	"team-chat-service/internal/middleware"
	"team-chat-service/internal/models"
	"team-chat-service/internal/observability"
	"team-chat-service/internal/rabbitmq"
	"team-chat-service/internal/repositories"
	"team-chat-service/internal/storage"
	"team-chat-service/internal/telemetry"
	"team-chat-service/internal/typing"
	"team-chat-service/internal/ws"
)

const serviceName = "team-chat-service"

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing := observability.InitTracing(ctx, serviceName, cfg.OTLPEndpoint)
	defer shutdownTracing(context.Background())

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.chat", serviceName, cfg.Environment)

	if wsEvents, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(wsEvents)
		defer wsEvents.Close()
	} else {
		log.Printf("ws event publishing disabled: %v", err)
	}

	channelRepo := repositories.NewChannelRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	presenceRepo := repositories.NewPresenceRepo(database)
	typingRepo := repositories.NewTypingRepo(database)
	searchRepo := repositories.NewSearchRepo(database)

	hub := ws.NewHub()
	registry := typing.NewRegistry(func(channelID, userID int) {
		hub.BroadcastEvent(channelID, models.ChannelEvent{
			Type:      models.EventTypingStop,
			ChannelID: channelID,
			UserID:    userID,
		})
	})
	defer registry.Close()
	hub.SetEmptyCallback(registry.DropChannel)

	dispatch := func(event models.ChannelEvent) {
		switch event.Type {
		case models.EventTypingStart:
			registry.Start(event.ChannelID, event.UserID)
		case models.EventTypingStop:
			registry.Stop(event.ChannelID, event.UserID)
		}
		hub.BroadcastEvent(event.ChannelID, event)
	}

	var publisher broker.Publisher
	if subscriber := broker.NewSubscriber(cfg.RedisURL); subscriber != nil {
		defer subscriber.Close()
		go subscriber.Run(ctx, dispatch)
		publisher = broker.NewPublisher(cfg.RedisURL)
	} else {
		publisher = broker.NewLoopback(dispatch)
	}
	defer publisher.Close()

	store, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.ObjectStoreEndpoint,
		AccessKey: cfg.ObjectStoreAccessKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		Bucket:    cfg.ObjectStoreBucket,
		UseSSL:    cfg.ObjectStoreUseSSL,
	})
	if err != nil {
		log.Printf("object store unavailable, attachments disabled: %v", err)
	}

	validator := auth.NewJWTValidator(cfg.JWTSecret)

	channelHandler := handlers.NewChannelHandler(channelRepo, auditEmitter)
	messageHandler := handlers.NewMessageHandler(channelRepo, messageRepo, publisher, auditEmitter)
	presenceHandler := handlers.NewPresenceHandler(presenceRepo, publisher)
	typingHandler := handlers.NewTypingHandler(channelRepo, typingRepo, publisher)
	searchHandler := handlers.NewSearchHandler(channelRepo, messageRepo, searchRepo)

	channelWS := ws.NewChannelWSHandler(hub, channelRepo, validator)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(validator)

	router.POST("/channels", authMiddleware, channelHandler.CreateChannel)
	router.GET("/channels", authMiddleware, channelHandler.ListChannels)
	router.POST("/channels/:channel_id/join", authMiddleware, channelHandler.JoinChannel)
	router.POST("/channels/:channel_id/leave", authMiddleware, channelHandler.LeaveChannel)
	router.POST("/channels/:channel_id/read", authMiddleware, channelHandler.MarkChannelRead)
	router.GET("/channels/:channel_id/participants", authMiddleware, channelHandler.ListParticipants)

	router.GET("/channels/:channel_id/messages", authMiddleware, messageHandler.GetMessages)
	router.POST("/channels/:channel_id/messages", authMiddleware, messageHandler.PostMessage)
	router.PUT("/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)
	router.POST("/messages/:message_id/reactions", authMiddleware, messageHandler.AddReaction)
	router.DELETE("/messages/:message_id/reactions", authMiddleware, messageHandler.RemoveReaction)

	router.PUT("/presence", authMiddleware, presenceHandler.UpdatePresence)
	router.GET("/presence/online", authMiddleware, presenceHandler.GetOnlineUsers)
	router.GET("/presence/users/:user_id", authMiddleware, presenceHandler.GetPresence)

	router.POST("/channels/:channel_id/typing/start", authMiddleware, typingHandler.StartTyping)
	router.POST("/channels/:channel_id/typing/stop", authMiddleware, typingHandler.StopTyping)
	router.GET("/channels/:channel_id/typing", authMiddleware, typingHandler.GetTypingUsers)

	router.GET("/search/messages", authMiddleware, searchHandler.SearchMessages)
	router.GET("/channels/:channel_id/history", authMiddleware, searchHandler.GetMessageHistory)

	if store != nil {
		attachmentHandler := handlers.NewAttachmentHandler(channelRepo, messageRepo, store, publisher, auditEmitter)
		router.POST("/channels/:channel_id/attachments", authMiddleware, attachmentHandler.PostAttachment)
	}

	router.GET("/ws/channels/:channel_id", channelWS.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
