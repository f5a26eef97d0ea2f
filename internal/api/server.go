// internal/api/server.go

// Package api exposes the reminder engine over HTTP: manual triggers,
// per-user notification settings and operational endpoints.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/notify"
)

type Server struct {
	engine      *gin.Engine
	coordinator *notify.Coordinator
	settings    *notify.SettingsService
	log         logger.Logger
}

func NewServer(coordinator *notify.Coordinator, settings *notify.SettingsService, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:      engine,
		coordinator: coordinator,
		settings:    settings,
		log:         log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	notifications := s.engine.Group("/api/notifications")
	{
		notifications.POST("/check", s.handleCheck)
		notifications.POST("/digest", s.handleDigest)
		notifications.POST("/send/:applicationId", s.handleManualSend)
		notifications.GET("/settings/:email", s.handleGetSettings)
		notifications.PUT("/settings/:email", s.handleUpdateSettings)
		notifications.GET("/verify", s.handleVerify)
	}
}

// Handler returns the http.Handler for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusForError maps engine error codes onto HTTP statuses.
func statusForError(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeDatabaseNotConnected:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeSweepInProgress:
		return http.StatusConflict
	case apperrors.ErrCodeSettingsValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"success": false, "error": err.Error()})
}
