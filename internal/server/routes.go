package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/beacon-gw/beacon/internal/server/middleware"
	v1 "github.com/beacon-gw/beacon/internal/server/v1"
	"github.com/beacon-gw/beacon/pkg/api"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))
	s.router.Use(otelgin.Middleware("beacon-gateway"))

	s.router.NoRoute(func(c *gin.Context) {
		_ = c.Error(api.NotFoundError("no such endpoint: " + c.Request.URL.Path))
	})

	statusHandler := v1.NewStatusHandler(s.service)
	s.router.GET("/health", statusHandler.Health)

	limiter := middleware.NewRateLimiter(
		s.config.RateLimit.RequestsPerSecond,
		s.config.RateLimit.Burst,
		s.logger,
	)

	grp := s.router.Group("/v1")
	grp.Use(middleware.Auth(s.repo, s.config.Server.APIKeys))
	grp.Use(limiter.Middleware())
	{
		taskHandler := v1.NewTaskHandler(s.service)
		grp.POST("/chat", taskHandler.Chat)
		grp.POST("/translate", taskHandler.Translate)
		grp.POST("/summarize", taskHandler.Summarize)
		grp.POST("/audio/transcriptions", taskHandler.Transcribe)
		grp.POST("/images/analyze", taskHandler.AnalyzeImage)

		grp.GET("/status", statusHandler.Status)
		grp.GET("/providers/health", statusHandler.ProviderHealth)

		if s.repo != nil {
			analyticsHandler := v1.NewAnalyticsHandler(s.repo)
			grp.GET("/analytics/attempts", analyticsHandler.RecentAttempts)
			grp.GET("/analytics/tallies", analyticsHandler.OutcomeTallies)
		}
	}
}
