package handler

import (
	"net/http"
	"time"

	"github.com/addy2510/policymanager/config"
	"github.com/addy2510/policymanager/middleware"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Policies  *service.PolicyService
	Exporter  *service.Exporter
	Artifacts *service.ArtifactService
}

// NewRouter wires middleware and routes onto a fresh engine
func NewRouter(cfg *config.Config, svcs Services) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	authHandler := NewAuthHandler(cfg)
	policyHandler := NewPolicyHandler(svcs.Policies)
	exportHandler := NewExportHandler(svcs.Exporter)
	artifactHandler := NewArtifactHandler(svcs.Artifacts)

	router.POST("/auth/login", authHandler.Login)

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())
	api.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		api.GET("/auth/me", authHandler.GetCurrentUser)

		policy := api.Group("/policy")
		policy.POST("", policyHandler.Create)
		policy.GET("/search", policyHandler.Search)
		policy.GET("/maturity", policyHandler.Maturity)
		policy.GET("/maturity/export", exportHandler.ExportMaturity)
		policy.GET("/all", policyHandler.ListAll)
		policy.GET("/stats", policyHandler.Stats)
		policy.POST("/export", exportHandler.ExportOne)
		policy.POST("/export/all", exportHandler.ExportAll)
		policy.GET("/documents/:id", artifactHandler.Download)
		policy.GET("/:policyNumber", policyHandler.Get)
		policy.PUT("/:policyNumber", policyHandler.Update)
		policy.GET("/:policyNumber/documents", artifactHandler.List)
		policy.POST("/:policyNumber/documents", middleware.BodyLimit(cfg.Artifact.MaxRequestBytes), artifactHandler.Upload)
	}

	return router
}
