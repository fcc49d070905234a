package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkovac/tripmates-api/internal/config"
	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/handlers"
	"github.com/dkovac/tripmates-api/internal/hub"
	authmw "github.com/dkovac/tripmates-api/internal/middleware"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/dkovac/tripmates-api/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	tripService := services.NewTripService(db)
	memberService := services.NewMemberService(db)
	inviteService := services.NewInviteService(db)
	taskService := services.NewTaskService(db)
	emailService := services.NewEmailService(cfg.SMTP)

	realtimeHub := hub.NewHub()
	go realtimeHub.Run()

	sseHub := sse.NewHub()
	go sseHub.Run()

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService, emailService)
	userHandler := handlers.NewUserHandler(userService)
	tripHandler := handlers.NewTripHandler(tripService, memberService, userService, realtimeHub, sseHub)
	memberHandler := handlers.NewMemberHandler(cfg, memberService, inviteService, tripService, userService, emailService, realtimeHub)
	taskHandler := handlers.NewTaskHandler(taskService, userService, realtimeHub, sseHub)
	inviteHandler := handlers.NewInviteHandler(inviteService, realtimeHub)
	sseHandler := handlers.NewSSEHandler(sseHub, memberService, tripService)
	syncHandler := handlers.NewSyncHandler(realtimeHub, memberService, tripService, userService, jwtService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/magic-link", authHandler.RequestMagicLink)
	auth.Post("/magic-link/verify", authHandler.VerifyMagicLink)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.Me)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Get("/trips", tripHandler.List)
	protected.Post("/trips", tripHandler.Create)
	protected.Get("/trips/:tripId", tripHandler.Get)
	protected.Patch("/trips/:tripId", tripHandler.Update)
	protected.Delete("/trips/:tripId", tripHandler.Delete)

	protected.Get("/trips/:tripId/members", memberHandler.List)
	protected.Get("/trips/:tripId/permissions", memberHandler.Permissions)
	protected.Get("/trips/:tripId/presence", memberHandler.Presence)
	protected.Post("/trips/:tripId/invites", memberHandler.Invite)
	protected.Get("/trips/:tripId/invites", memberHandler.ListInvites)
	protected.Delete("/trips/:tripId/invites/:inviteId", memberHandler.CancelInvite)
	protected.Delete("/trips/:tripId/members/:email", memberHandler.Remove)
	protected.Post("/trips/:tripId/leave", memberHandler.Leave)

	protected.Post("/invites/:token/accept", memberHandler.AcceptInvite)
	protected.Post("/invites/:token/decline", memberHandler.DeclineInvite)

	protected.Post("/trips/:tripId/tasks/:taskId/assign", taskHandler.Assign)
	protected.Post("/trips/:tripId/tasks/:taskId/unassign", taskHandler.Unassign)
	protected.Post("/trips/:tripId/tasks/:taskId/complete", taskHandler.Complete)
	protected.Post("/trips/:tripId/tasks/:taskId/uncomplete", taskHandler.Uncomplete)
	protected.Post("/trips/:tripId/tasks/:taskId/comments", taskHandler.AddComment)
	protected.Post("/trips/:tripId/checklist/enhanced", taskHandler.EnhancedItems)
	protected.Post("/trips/:tripId/checklist/stats", taskHandler.Stats)

	protected.Get("/trips/:tripId/events", sseHandler.Connect)
	protected.Post("/sse/:clientId/subscribe/:tripId", sseHandler.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:tripId", sseHandler.Unsubscribe)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	api.Get("/sync", syncHandler.Connect)

	// Public invite pages (no auth required)
	app.Get("/invite/:token", inviteHandler.ViewInvite)
	app.Post("/invite/:token/accept", inviteHandler.AcceptInvite)
	app.Post("/invite/:token/decline", inviteHandler.DeclineInvite)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			_ = tokenService.CleanupExpired(context.Background())
			_ = inviteService.ExpireStale(context.Background())
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
