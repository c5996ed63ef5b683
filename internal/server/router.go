package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/eitanrom/plada-backend/internal/http/handlers"
	"github.com/eitanrom/plada-backend/internal/http/middleware"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ReportsHandler *handlers.ReportsHandler
	MetricsHandler *handlers.MetricsHandler
	AllowOrigins   []string
	TracingEnabled bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("plada-backend"))
	}
	router.Use(middleware.RequestID(cfg.Log))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/reports", cfg.ReportsHandler.Ingest)
		api.GET("/deadletters", cfg.ReportsHandler.ListDeadLetters)

		api.GET("/overview", cfg.MetricsHandler.Overview)
		api.GET("/companies/:company/tanks", cfg.MetricsHandler.CompanyTanks)
		api.GET("/companies/:company/sections", cfg.MetricsHandler.CompanySections)
		api.GET("/gaps", cfg.MetricsHandler.Gaps)
		api.GET("/trends", cfg.MetricsHandler.Trends)
		api.GET("/search", cfg.MetricsHandler.Search)
	}

	return router
}
