package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/pscomixx/studio-collab/api/handlers"
	"github.com/pscomixx/studio-collab/api/middleware"
	"github.com/pscomixx/studio-collab/internal/config"
	"github.com/pscomixx/studio-collab/internal/db"
	"github.com/pscomixx/studio-collab/internal/repository"
	"github.com/pscomixx/studio-collab/internal/session"
	"github.com/pscomixx/studio-collab/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	sessionRepo := repository.NewSessionRepository(database)

	if cfg.JournalDir != "" {
		if err := os.MkdirAll(cfg.JournalDir, 0755); err != nil {
			log.Fatalf("Failed to create journal directory: %v", err)
		}
	}

	// Realtime service and lifecycle manager reference each other: the
	// manager consults presence for admission, the handler consults the
	// manager for admission decisions.
	realtime := ws.NewService(ws.Config{
		Palette:    cfg.Palette,
		JoinGrace:  cfg.JoinGrace,
		JournalDir: cfg.JournalDir,
	})
	defer realtime.Close()

	sessionManager := session.NewManager(sessionRepo, realtime, session.Config{
		MaxParticipantsLimit: len(cfg.Palette),
	})
	realtime.SetAdmitter(sessionManager)

	sessionHandler := handlers.NewSessionHandler(sessionManager, realtime)
	wsHandler := handlers.NewWebSocketHandler(realtime.Handler())

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		// Session management requires an identity.
		authed := api.Group("")
		authed.Use(middleware.Identity(cfg.JWTSecret))
		sessionHandler.RegisterRoutes(authed)

		// The realtime endpoint authenticates via the join handshake.
		wsHandler.RegisterRoutes(api)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		realtime.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-Id, X-User-Name")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
