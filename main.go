package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/R01085B-Limaylla/webContratos/config"
	"github.com/R01085B-Limaylla/webContratos/document"
	"github.com/R01085B-Limaylla/webContratos/handler"
	"github.com/R01085B-Limaylla/webContratos/middleware"
	"github.com/R01085B-Limaylla/webContratos/pkg/logger"
	"github.com/R01085B-Limaylla/webContratos/service"
	"github.com/R01085B-Limaylla/webContratos/summary"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		slog.Error("failed to apply environment", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "store", cfg.Store.Driver, "bucket", cfg.Minio.Bucket)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store
	db, err := service.OpenDatabase(&cfg.Store)
	if err != nil {
		slog.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	store := service.NewContractStore(db)
	if err := service.WaitReady(ctx, "record store", cfg.Ready.Attempts, cfg.Ready.Interval(), store.Ping); err != nil {
		slog.Error("record store not ready", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(); err != nil {
		slog.Error("failed to migrate record store", "error", err)
		os.Exit(1)
	}

	// Blob store
	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize MINIO service", "error", err)
		os.Exit(1)
	}
	if err := service.WaitReady(ctx, "blob store", cfg.Ready.Attempts, cfg.Ready.Interval(), minioSvc.EnsureBucket); err != nil {
		slog.Error("failed to ensure MINIO bucket", "error", err)
		os.Exit(1)
	}

	locale := summary.LocaleFor(cfg.Business.Locale, cfg.Business.Currency)
	renderer := summary.NewRenderer(locale, nil)
	docs := document.NewBuilder(locale, document.Options{
		BusinessName: cfg.Business.Name,
		Signer:       cfg.Business.Signer,
		BarSigner:    cfg.Business.BarSigner,
	})

	contractSvc := service.NewContractService(store, minioSvc, service.NewChromeRasterizer(&cfg.Renderer), docs, cfg.Preview.TTL())
	lister := service.NewLister(store, minioSvc, renderer, 4)

	whatsapp := service.NewWhatsAppClient(&cfg.WhatsApp)
	if !whatsapp.Configured() {
		slog.Warn("whatsapp credentials missing, bot replies will fail")
	}

	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(contractSvc, lister, docs, cfg.Renderer.PageSize)
	webhookHandler := handler.NewWebhookHandler(&cfg.WhatsApp, store, lister, whatsapp)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for name, probe := range map[string]service.Probe{"store": store.Ping, "bucket": minioSvc.Ping} {
			if err := probe(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": name})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Messaging platform callbacks
	webhookHandler.Register(router.Group("/webhook"))

	api := router.Group("/api")
	api.POST("/auth/login", middleware.RateLimit(10, time.Minute), authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	auth := middleware.AuthMiddleware(&cfg.Auth)
	router.GET("/contratos", auth, contractHandler.Page)

	protected := api.Group("/")
	protected.Use(auth)
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.GET("/contracts", contractHandler.List)
		protected.POST("/contracts", contractHandler.Create)
		protected.POST("/contracts/preview", contractHandler.Preview)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.PUT("/contracts/:id", contractHandler.Replace)
		protected.DELETE("/contracts/:id", contractHandler.Delete)
		protected.GET("/contracts/:id/pdf", contractHandler.PDF)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second, // rendering a PDF can take most of a minute
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, Viewport-Width, Sec-CH-Viewport-Width")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps contract data out of shared caches
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") || path == "/contratos" {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
