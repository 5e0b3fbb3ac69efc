package server

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/config"
	"github.com/beacon-gw/beacon/internal/gateway"
	"github.com/beacon-gw/beacon/internal/server/middleware"
	"github.com/beacon-gw/beacon/internal/server/validator"
	"github.com/beacon-gw/beacon/internal/store"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	service gateway.Service
	repo    store.Repository
}

func New(cfg *config.Config, logger *zap.Logger, service gateway.Service, repo store.Repository) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validator.InitValidator()

	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router:  engine,
		config:  cfg,
		logger:  logger,
		service: service,
		repo:    repo,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
