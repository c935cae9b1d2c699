package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/addy2510/policymanager/config"
	"github.com/addy2510/policymanager/handler"
	"github.com/addy2510/policymanager/pkg/logger"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully",
		"store", cfg.Store.Driver,
		"artifact_backend", cfg.Artifact.Backend,
		"auth", cfg.Auth.Enabled,
	)

	ctx := context.Background()

	policyStore, artifactStore, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize artifact backend", "error", err)
		os.Exit(1)
	}

	policies := service.NewPolicyService(policyStore, service.NewCodeGenerator(), time.Now)
	artifacts := service.NewArtifactService(policyStore, artifactStore, blobs, cfg.Artifact.MaxSizeBytes, time.Now)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(cfg, handler.Services{
		Policies:  policies,
		Exporter:  service.NewExporter(policies),
		Artifacts: artifacts,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// openStores picks the record stores for the configured driver. The returned
// func releases whatever was opened.
func openStores(ctx context.Context, cfg *config.Config) (service.PolicyStore, service.ArtifactStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := service.NewPostgresPool(ctx, cfg.Store)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := service.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		slog.Info("postgres store ready", "max_conns", cfg.Store.MaxConns)
		return service.NewPostgresPolicyStore(pool), service.NewPostgresArtifactStore(pool), pool.Close, nil
	default:
		slog.Warn("using in-memory store, data is lost on restart")
		return service.NewMemoryPolicyStore(), service.NewMemoryArtifactStore(), func() {}, nil
	}
}

func openBlobs(ctx context.Context, cfg *config.Config) (service.BlobStore, error) {
	switch cfg.Artifact.Backend {
	case config.BackendMinio:
		minioStore, err := service.NewMinioBlobStore(&cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return minioStore, nil
	default:
		slog.Info("storing artifacts on disk", "directory", cfg.Artifact.UploadDir)
		return service.NewFilesystemBlobStore(cfg.Artifact.UploadDir)
	}
}
