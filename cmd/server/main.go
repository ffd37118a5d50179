package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kerala-sedp/internal/config"
	"kerala-sedp/internal/handlers"
	"kerala-sedp/internal/middleware"
	"kerala-sedp/internal/models"
	"kerala-sedp/internal/remote"
	"kerala-sedp/internal/session"
	"kerala-sedp/internal/store"
	"kerala-sedp/pkg/auth"
	"kerala-sedp/pkg/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	serverStartTime = time.Now()

	appVersion = "1.0.0"
	buildTime  = "unknown"
	gitCommit  = "unknown"
)

func main() {
	cfg := config.Load()

	setupLogging(cfg)
	printStartupInfo(cfg)

	validator.Init()

	client, cleanup, err := newRemoteClient(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("connecting to remote backend")
	}
	defer cleanup()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)

	// Event feed hub doubles as the user-facing notification channel
	hub := handlers.NewHub()
	go hub.Run()
	defer hub.Shutdown()

	notifier := store.MultiNotifier{store.LogNotifier{}, hub}
	snapshot := store.New(client, notifier)

	// Initial snapshot load; failures surface as toasts, not fatal errors
	func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		snapshot.Refresh(ctx)
	}()

	sessions := session.New(client)
	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := sessions.Start(startCtx); err != nil {
		startCancel()
		logrus.WithError(err).Fatal("starting session mirror")
	}
	startCancel()
	defer func() {
		if err := sessions.Close(); err != nil {
			logrus.WithError(err).Warn("closing session mirror")
		}
	}()

	// Session changes go out on the front-end event feed
	sessions.OnChange(func(user *models.User) {
		hub.Broadcast(handlers.Event{Type: "session", Data: user})
	})

	router := setupRouter(cfg, snapshot, sessions, hub, jwtManager)

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"version": appVersion,
		}).Info("server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Broadcast(handlers.Event{
		Type: "system",
		Data: map[string]interface{}{
			"message": "Server is shutting down",
		},
	})

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("server forced to shutdown")
	} else {
		logrus.Info("server gracefully stopped")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func printStartupInfo(cfg *config.Config) {
	logrus.WithFields(logrus.Fields{
		"version":     appVersion,
		"build_time":  buildTime,
		"commit":      gitCommit,
		"environment": cfg.Env,
		"backend":     cfg.RemoteBackend,
	}).Info("registration portal backend")
}

// newRemoteClient selects the remote backend from configuration. The returned
// cleanup releases backend resources on shutdown.
func newRemoteClient(cfg *config.Config) (remote.Client, func(), error) {
	switch cfg.RemoteBackend {
	case "mongodb":
		m, err := remote.NewMongo(cfg)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoTimeout)*time.Second)
		defer cancel()
		if err := m.EnsureIndexes(ctx); err != nil {
			logrus.WithError(err).Warn("failed to create some indexes")
		}

		cleanup := func() {
			if err := m.Close(); err != nil {
				logrus.WithError(err).Warn("disconnecting from MongoDB")
			}
		}
		return m, cleanup, nil

	case "hosted":
		return remote.NewHosted(cfg.PlatformURL, cfg.PlatformKey), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown remote backend %q", cfg.RemoteBackend)
	}
}

func setupRouter(
	cfg *config.Config,
	snapshot *store.Store,
	sessions *session.Store,
	hub *handlers.Hub,
	jwtManager *auth.JWTManager,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindow)*time.Second)
		router.Use(limiter.RateLimit())
	}

	registrationHandler := handlers.NewRegistrationHandler(snapshot)
	categoryHandler := handlers.NewCategoryHandler(snapshot)
	snapshotHandler := handlers.NewSnapshotHandler(snapshot)
	sessionHandler := handlers.NewSessionHandler(sessions)
	eventsHandler := handlers.NewEventsHandler(hub, jwtManager)

	// Event feed endpoint, registered before the API groups
	router.GET("/ws", eventsHandler.HandleWebSocket)

	setupHealthRoutes(router, hub)

	v1 := router.Group("/api/v1")
	{
		// Public content
		v1.GET("/categories", categoryHandler.GetCategories)
		v1.GET("/panchayaths", snapshotHandler.GetPanchayaths)
		v1.GET("/announcements", snapshotHandler.GetAnnouncements)
		v1.GET("/gallery", snapshotHandler.GetGallery)

		// Authenticated routes
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager))
		{
			protected.GET("/session", sessionHandler.GetSession)
			protected.GET("/notifications", snapshotHandler.GetNotifications)
			protected.POST("/registrations", registrationHandler.CreateRegistration)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager))
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/registrations", registrationHandler.GetRegistrations)
			admin.PATCH("/registrations/:id/status", registrationHandler.UpdateStatus)
			admin.DELETE("/registrations/:id", registrationHandler.DeleteRegistration)
			admin.PUT("/categories/:name/image", categoryHandler.UpdateImage)
			admin.PUT("/categories/:name/fees", categoryHandler.UpdateFees)
			admin.POST("/refresh", snapshotHandler.Refresh)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}

func setupHealthRoutes(router *gin.Engine, hub *handlers.Hub) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(serverStartTime).String(),
			"version":   appVersion,
			"build": gin.H{
				"time":   buildTime,
				"commit": gitCommit,
			},
			"stats": gin.H{
				"websocket_connections": hub.ConnectionsCount(),
			},
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ready": true})
	})

	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alive": true})
	})
}
