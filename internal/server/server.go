package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/handler"
	"github.com/ledgerfeed/importer/internal/middleware"
	"github.com/ledgerfeed/importer/pkg/logger"
)

type Server struct {
	echo          *echo.Echo
	cfg           *config.Config
	logger        *logger.Logger
	importHandler *handler.ImportHandler
	healthHandler *handler.HealthHandler
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	importHandler *handler.ImportHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Server{
		echo:          e,
		cfg:           cfg,
		logger:        log,
		importHandler: importHandler,
		healthHandler: healthHandler,
	}
}

func (s *Server) Start() error {
	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)
	s.echo.GET("/health/ready", s.healthHandler.Ready)

	s.echo.POST("/imports", s.importHandler.StartConversion)
	s.echo.POST("/imports/preview", s.importHandler.Preview)
	s.echo.GET("/imports/:id/conversion", s.importHandler.ConversionStatus)
	s.echo.POST("/imports/:id/submit", s.importHandler.StartSubmission)
	s.echo.GET("/imports/:id/submission", s.importHandler.SubmissionStatus)

	s.echo.POST("/accounts/match", s.importHandler.MatchAccounts)
}

func (s *Server) Handler() *echo.Echo {
	s.setupMiddleware()
	s.setupRoutes()
	return s.echo
}
