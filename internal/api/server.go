// Package api exposes the orchestrator over HTTP for clients that drive a
// conversation directly instead of through a process engine.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
	"rfq-workers/internal/repository"
	"rfq-workers/internal/search"
)

// Orchestrator is the subset of the engine served over HTTP.
type Orchestrator interface {
	NextStep(ctx context.Context, req orchestrator.StepRequest) (models.NextStep, error)
	GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*orchestrator.AuditedResult, error)
	Refine(ctx context.Context, doc models.Document, feedback string, creds models.Credentials) (models.Document, error)
}

// AuditedDocuments produces audited documents, typically through the document cache.
type AuditedDocuments interface {
	GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*orchestrator.AuditedResult, error)
}

type DocumentStore interface {
	Get(ctx context.Context, id string) (*repository.Record, error)
	ListByCategory(ctx context.Context, category models.Category, limit int) ([]repository.Record, error)
}

type DocumentSearch interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

// Server holds the HTTP handlers. Store and Search are optional; their routes
// are only registered when set. Documents, when set, serves the audited path
// instead of Engine.
type Server struct {
	Engine    Orchestrator
	Documents AuditedDocuments
	Store     DocumentStore
	Search    DocumentSearch
	Logger    logger.Logger
}

// NewRouter builds a gin engine with tracing, request metrics and all API routes.
func NewRouter(serviceName string, s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(requestMetrics())
	s.Register(router)
	return router
}

// Register mounts the API routes on router.
func (s *Server) Register(router gin.IRouter) {
	if s.Logger == nil {
		s.Logger = logger.NewNoOpLogger()
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/models", s.listModels)
		v1.POST("/steps/next", s.nextStep)

		documents := v1.Group("/documents")
		{
			documents.POST("/audited", s.generateAudited)
			documents.POST("/refine", s.refine)
			if s.Search != nil {
				documents.GET("/search", s.searchDocuments)
			}
			if s.Store != nil {
				documents.GET("", s.listDocuments)
				documents.GET("/:id", s.getDocument)
			}
		}
	}
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

type errorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeNoCredential:
		return http.StatusUnauthorized
	case apperrors.ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeServiceError:
		return http.StatusBadGateway
	case apperrors.ErrCodeIndexFailed, apperrors.ErrCodeArchiveFailed, apperrors.ErrCodeCacheFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", map[string]interface{}{
			"route": c.FullPath(),
			"code":  string(stdErr.Code),
			"error": err,
		})
	}
	c.JSON(status, errorResponse{
		Error:     string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Metadata:  stdErr.Metadata,
		Timestamp: stdErr.Timestamp,
	})
}

func (s *Server) bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.writeError(c, apperrors.NewInvalidInputError("invalid request body: "+err.Error()))
		return false
	}
	return true
}
