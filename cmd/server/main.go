package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rabies-risk-service/internal/adapters/primary/http/handlers"
	"rabies-risk-service/internal/adapters/primary/http/middleware"
	"rabies-risk-service/internal/adapters/secondary/postgres"
	"rabies-risk-service/internal/adapters/secondary/sqlite"
	"rabies-risk-service/internal/config"
	"rabies-risk-service/internal/core/model"
	output "rabies-risk-service/internal/core/ports/output"
	"rabies-risk-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// The artifact must load before anything is served.
	trained, err := model.Load(cfg.Model.ArtifactPath)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}

	repo, err := openHistory(cfg)
	if err != nil {
		log.Fatalf("open prediction history: %v", err)
	}
	if repo != nil {
		defer repo.Close()
	}

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Core Services (Application Layer)
	inferenceSvc := services.NewInferenceService(trained)
	historySvc := services.NewHistoryService(repo)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(inferenceSvc, historySvc)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/rabies")
	h.RegisterRoutes(api)

	// Health check with history ping
	router.GET("/healthz", func(c *gin.Context) {
		if err := historySvc.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model_id": trained.Metadata.ID})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
		return
	}

	log.Info("server stopped")
}

// openHistory returns nil when history is disabled.
func openHistory(cfg *config.Config) (output.PredictionRepository, error) {
	switch cfg.History.Driver {
	case config.HistoryPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse db config: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("create db pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping db: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("database connection established")
		return postgres.NewPredictionRepository(pool), nil

	case config.HistorySQLite:
		repo, err := sqlite.Open(cfg.History.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.History.SQLitePath).Info("sqlite prediction history opened")
		return repo, nil

	default:
		log.Info("prediction history disabled")
		return nil, nil
	}
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
