package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"

	"groundstation/internal/config"
	"groundstation/internal/controllers"
	"groundstation/internal/middleware"
	"groundstation/internal/models"
	"groundstation/internal/routes"
	"groundstation/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	middleware.NewSecurityLogger()

	// the local feed is both an API surface and, via HTTP, a pollable origin
	feed := services.NewFeedService(cfg.Feed)
	feed.Start()

	users, err := services.NewUserService(services.NewJSONFileStore(cfg.Users.File))
	if err != nil {
		log.Fatalf("failed to initialize user store: %v", err)
	}
	tokens := services.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenExpiry.Std())

	origins := map[models.Mode]services.Origin{}
	if cfg.Cloud.Base != "" {
		origins[models.ModeCloud] = services.NewCloudOrigin(cfg.Cloud)
	}
	if cfg.Local.Base != "" {
		origins[models.ModeLocalBackend] = services.NewLocalOrigin(cfg.Local)
	}

	hub := services.NewWebSocketHub()
	session := services.NewSession(cfg, origins)
	session.OnCycle = hub.BroadcastCycle
	session.OnEvent = hub.BroadcastEvent

	if err := session.Start(); err != nil {
		log.Fatalf("failed to start polling session: %v", err)
	}

	r := gin.Default()
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.IPWhitelistMiddleware(middleware.NewIPWhitelist(cfg.Server.AllowedIPs)))
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter()))

	routes.RegisterTelemetryRoutes(r, &controllers.TelemetryController{Feed: feed, Session: session})
	routes.RegisterUserRoutes(r, &controllers.UsersController{Users: users, Tokens: tokens}, middleware.NewAuthRateLimiter())
	routes.RegisterSessionRoutes(r, &controllers.SessionController{Session: session, Tokens: tokens})
	routes.RegisterWebSocketRoutes(r, &controllers.WebSocketController{Hub: hub, Tokens: tokens})

	log.Printf("[API] listening on %s", cfg.Server.ListenAddr)
	if err := r.Run(cfg.Server.ListenAddr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
