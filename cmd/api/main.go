package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ebox-messaging/internal/config"
	"ebox-messaging/internal/handler"
	"ebox-messaging/internal/middleware"
	"ebox-messaging/internal/reconciler"
	redisinfra "ebox-messaging/internal/redis"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/services"
	"ebox-messaging/internal/state"
	"ebox-messaging/internal/storage"
	"ebox-messaging/internal/ws"
	"ebox-messaging/pkg/database"
	"ebox-messaging/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	feedPub := redisinfra.NewPublisher(redisClient)
	feedSub := redisinfra.NewSubscriber(redisClient)

	conversations := repository.NewConversationRepository(db, feedPub)
	messages := repository.NewMessageRepository(db, feedPub)
	invitations := repository.NewInvitationRepository(db, feedPub)
	members := repository.NewMemberRepository(db, feedPub)
	broadcasts := repository.NewBroadcastRepository(db, feedPub)
	users := repository.NewUserRepository(db)
	policies := repository.NewPolicyRepository(db)

	store := state.NewStore()

	messageService := services.NewMessageService(store, messages, conversations, broadcasts,
		services.NewBroadcastAuthorizer(), cfg.Delivery, l)
	reactionService := services.NewReactionService(store)
	invitationService := services.NewInvitationService(store, invitations, conversations, messages, users, l)
	groupService := services.NewGroupService(store, conversations, members, l)
	forwardService := services.NewForwardService(store, messages, conversations, policies, l)

	var attachmentService *services.AttachmentService
	if cfg.Storage.Bucket != "" {
		s3Client, err := storage.NewClient(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("failed to init attachment storage: %v", err)
		}
		attachmentService = services.NewAttachmentService(s3Client)
	} else {
		attachmentService = services.NewAttachmentService(nil)
		l.Warnf("attachment storage not configured; uploads disabled")
	}

	rec := reconciler.New(store, feedSub, l)
	go func() {
		if err := rec.Run(ctx); err != nil && ctx.Err() == nil {
			l.Errorf("reconciler stopped: %v", err)
		}
	}()

	messageHandler := handler.NewMessageHandler(messageService, reactionService, forwardService)
	conversationHandler := handler.NewConversationHandler(store, conversations, messages)
	invitationHandler := handler.NewInvitationHandler(invitationService)
	groupHandler := handler.NewGroupHandler(groupService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	wsHandler := ws.NewHandler(feedSub, l)

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(l))
	r.Use(middleware.ErrorHandler(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	{
		api.GET("/conversations", conversationHandler.List)
		api.GET("/conversations/:id", conversationHandler.GetByID)

		api.POST("/messages", messageHandler.Send)
		api.PATCH("/messages/:id", messageHandler.Edit)
		api.DELETE("/messages/:id", messageHandler.Delete)
		api.POST("/messages/:id/reactions", messageHandler.ToggleReaction)
		api.POST("/messages/:id/forward", messageHandler.Forward)

		api.GET("/users/search", invitationHandler.SearchUsers)
		api.POST("/invitations", invitationHandler.Send)
		api.POST("/invitations/:id/respond", invitationHandler.Respond)

		api.POST("/groups", groupHandler.Create)
		api.POST("/groups/:id/join", groupHandler.Join)
		api.POST("/groups/:id/invite", groupHandler.Invite)
		api.POST("/groups/:id/members/:memberId/respond", groupHandler.RespondToJoinRequest)
		api.POST("/groups/:id/leave", groupHandler.Leave)

		api.POST("/attachments", attachmentHandler.Upload)
		api.GET("/attachments/url", attachmentHandler.DownloadURL)

		api.GET("/ws", wsHandler.Serve)
	}

	l.Infof("starting server on port %s", cfg.Server.Port)
	if err := r.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
