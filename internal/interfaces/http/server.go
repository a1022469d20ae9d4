// Package http exposes the workflow services over a JSON API. Identity
// arrives in the X-User-ID and X-User-Roles headers; authentication
// itself is handled upstream by the campus SSO proxy.
package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/service"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
	"github.com/siakad/thesis-workflow/internal/notification"
)

// Server wires the workflow services to gin routes
type Server struct {
	proposals     service.ProposalService
	consultations service.ConsultationService
	sempros       service.SemproService
	history       service.HistoryService
	exports       service.ExportService
	dispatcher    *notification.Dispatcher
	logger        *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	proposals service.ProposalService,
	consultations service.ConsultationService,
	sempros service.SemproService,
	history service.HistoryService,
	exports service.ExportService,
	dispatcher *notification.Dispatcher,
	logger *zap.Logger,
) *Server {
	return &Server{
		proposals:     proposals,
		consultations: consultations,
		sempros:       sempros,
		history:       history,
		exports:       exports,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(s.logger))
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "thesis-workflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		proposals := api.Group("/proposals")
		{
			proposals.POST("", s.submitProposal)
			proposals.GET("/:id", s.getProposal)
			proposals.PATCH("/:id", s.updateProposal)
			proposals.POST("/:id/approve", s.approveProposal)
			proposals.POST("/:id/reject", s.rejectProposal)
			proposals.POST("/:id/request-revision", s.requestProposalRevision)
			proposals.GET("/:id/consultations", s.listConsultations)
		}

		consultations := api.Group("/consultations")
		{
			consultations.POST("", s.logConsultation)
			consultations.GET("/:id", s.getConsultation)
			consultations.PATCH("/:id", s.editConsultation)
			consultations.POST("/:id/decide", s.decideConsultation)
		}

		sempros := api.Group("/sempros")
		{
			sempros.POST("", s.registerSempro)
			sempros.GET("/:id", s.getSempro)
			sempros.POST("/:id/verify", s.verifySempro)
			sempros.POST("/:id/reject", s.rejectSempro)
			sempros.POST("/:id/request-doc-revision", s.requestDocRevision)
			sempros.POST("/:id/schedule", s.scheduleSempro)
			sempros.GET("/:id/schedule", s.getSchedule)
			sempros.POST("/:id/evaluations", s.submitEvaluation)
			sempros.GET("/:id/evaluations", s.listEvaluations)
			sempros.POST("/:id/request-revision", s.requestPostEvalRevision)
			sempros.POST("/:id/approve-final", s.approveFinal)
			sempros.POST("/:id/resubmit", s.resubmitDocuments)
			sempros.GET("/:id/recap", s.exportRecap)
		}

		api.POST("/schedules/:id/publish", s.publishSchedule)
		api.GET("/history/:subjectType/:id", s.getTimeline)
		api.POST("/notifications/dispatch", s.dispatchPending)
	}

	return router
}

// actorFrom reads the caller's identity from the request headers
func actorFrom(c *gin.Context) (entity.Actor, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return entity.Actor{}, false
	}

	var roles []entity.Role
	for _, raw := range strings.Split(c.GetHeader("X-User-Roles"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		role, err := entity.ParseRole(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return entity.Actor{}, false
		}
		roles = append(roles, role)
	}

	return entity.Actor{UserID: userID, Roles: roles}, true
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-User-Roles")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
