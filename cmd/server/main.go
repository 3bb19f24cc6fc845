package main

import (
	"log"
	"time"

	"poker-planning-backend/internal/config"
	"poker-planning-backend/internal/database"
	"poker-planning-backend/internal/handlers"
	"poker-planning-backend/internal/middleware"
	"poker-planning-backend/internal/services"
	"poker-planning-backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()
	locks := services.NewRoomLocks()
	scheduler := services.NewScheduler()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	permService := services.NewPermissionService(db)
	issueService := services.NewIssueService(db, locks, permService, scheduler)
	voteService := services.NewVoteService(db, locks, permService, issueService, scheduler, cfg.AutoRevealDelay)
	roomService := services.NewRoomService(db, locks, permService, voteService)
	roleService := services.NewRoleService(db, locks, permService, voteService)
	analyticsService := services.NewAnalyticsService(db)

	authHandler := handlers.NewAuthHandler(authService)
	roomHandler := handlers.NewRoomHandler(roomService, hub)
	issueHandler := handlers.NewIssueHandler(issueService, roomService, hub)
	voteHandler := handlers.NewVoteHandler(voteService, roomService, hub)
	memberHandler := handlers.NewMemberHandler(roleService, roomService, hub)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	wsHandler := handlers.NewWSHandler(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws/room/:id", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/guest", authHandler.Guest)
		}

		api.GET("/scales", roomHandler.ListScales)

		rooms := api.Group("/rooms")
		rooms.Use(middleware.JWTAuth(authService))
		{
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.POST("/:id/join", roomHandler.JoinRoom)
			rooms.POST("/:id/leave", roomHandler.LeaveRoom)
			rooms.PUT("/:id/name", roomHandler.RenameRoom)
			rooms.POST("/:id/auto-complete", roomHandler.ToggleAutoComplete)
			rooms.PUT("/:id/spectator", roomHandler.SetSpectator)
			rooms.POST("/:id/bots", roomHandler.AddBot)

			rooms.GET("/:id/issues", issueHandler.ListIssues)
			rooms.POST("/:id/issues", issueHandler.CreateIssue)
			rooms.PUT("/:id/issues/reorder", issueHandler.Reorder)
			rooms.GET("/:id/issues/export", issueHandler.ExportIssues)
			rooms.POST("/:id/issues/:issueId/start-voting", issueHandler.StartVoting)
			rooms.POST("/:id/reveal", issueHandler.Reveal)
			rooms.POST("/:id/reset-round", issueHandler.ResetRound)
			rooms.POST("/:id/ad-hoc", issueHandler.SwitchToAdHoc)

			rooms.POST("/:id/vote", voteHandler.PickCard)
			rooms.DELETE("/:id/vote", voteHandler.RemoveCard)
			rooms.POST("/:id/bot-vote", voteHandler.PickCardForBot)

			rooms.POST("/:id/members/:userId/promote", memberHandler.Promote)
			rooms.POST("/:id/members/:userId/demote", memberHandler.Demote)
			rooms.POST("/:id/members/:userId/transfer-ownership", memberHandler.TransferOwnership)
			rooms.DELETE("/:id/members/:userId", memberHandler.RemoveMember)
			rooms.PUT("/:id/permissions", memberHandler.UpdatePermissions)

			rooms.GET("/:id/analytics/summary", analyticsHandler.RoomSummary)
			rooms.GET("/:id/analytics/agreement", analyticsHandler.AgreementOverTime)
			rooms.GET("/:id/analytics/distribution", analyticsHandler.VoteDistribution)
			rooms.GET("/:id/analytics/alignment", analyticsHandler.VoterAlignment)
		}

		issues := api.Group("/issues")
		issues.Use(middleware.JWTAuth(authService))
		{
			issues.PUT("/:id", issueHandler.UpdateIssue)
			issues.PUT("/:id/estimate", issueHandler.SetEstimate)
			issues.DELETE("/:id", issueHandler.DeleteIssue)
		}
	}

	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		maxAge := time.Duration(cfg.RoomInactiveDays) * 24 * time.Hour
		for range ticker.C {
			if n := roomService.CleanupInactiveRooms(maxAge); n > 0 {
				log.Printf("cleanup: removed %d inactive rooms", n)
			}
		}
	}()

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
