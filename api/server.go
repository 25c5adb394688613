// Package api exposes headline runs and the partition catalog over HTTP.
package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pevans/headlines"
	"github.com/pevans/headlines/catalog"
	"github.com/pevans/headlines/fetch"
	"github.com/pevans/headlines/logger"
	"github.com/pevans/headlines/output"
	"github.com/pevans/headlines/publisher"
	"github.com/pevans/headlines/storage"
)

// Run stages accepted by POST /api/v1/runs.
const (
	StageDownload = "download"
	StageParse    = "parse"
	StageAll      = "all"
)

// Server is the HTTP API server.
type Server struct {
	job      *headlines.Job
	registry *publisher.Registry
	catalog  *catalog.Store
	store    storage.Store
	log      logger.Logger
}

// NewServer creates a new API server.
func NewServer(job *headlines.Job, registry *publisher.Registry, cat *catalog.Store, store storage.Store, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		job:      job,
		registry: registry,
		catalog:  cat,
		store:    store,
		log:      log,
	}
}

// SetupRouter configures the Gin router with all API routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.HandleHealth)

	api := router.Group("/api/v1")
	api.GET("/publishers", s.HandleListPublishers)
	api.POST("/runs", s.HandleCreateRun)
	api.POST("/events/object", s.HandleObjectEvent)
	api.GET("/partitions", s.HandleListPartitions)
	api.GET("/partitions/:publisher/:date", s.HandleGetPartition)

	return router
}

// requestLogger logs one entry per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			s.log.Error("HTTP request with errors", append(fields, logger.Strings("errors", c.Errors.Errors()))...)
			return
		}
		s.log.Info("HTTP request", fields...)
	}
}

// PublisherResponse describes one registered publisher.
type PublisherResponse struct {
	ID      string `json:"id"`
	BaseURL string `json:"base_url"`
	FeedURL string `json:"feed_url,omitempty"`
}

// CreateRunRequest represents the request for POST /api/v1/runs.
type CreateRunRequest struct {
	Publisher string `json:"publisher" binding:"required"`
	// Date defaults to today (UTC).
	Date string `json:"date,omitempty"`
	// Stage defaults to "all".
	Stage string `json:"stage,omitempty"`
}

// RunResponse represents the result of a run or object event.
type RunResponse struct {
	Publisher string                `json:"publisher"`
	Date      string                `json:"date"`
	Stage     string                `json:"stage"`
	RawKey    string                `json:"raw_key"`
	Summary   *headlines.RunSummary `json:"summary,omitempty"`
}

// ObjectEventRequest represents the request for POST /api/v1/events/object.
type ObjectEventRequest struct {
	Key string `json:"key" binding:"required"`
}

// ListPartitionsResponse represents the response for GET
// /api/v1/partitions.
type ListPartitionsResponse struct {
	Partitions []catalog.Partition `json:"partitions"`
	Total      int                 `json:"total"`
}

// PartitionResponse represents the response for GET
// /api/v1/partitions/{publisher}/{date}.
type PartitionResponse struct {
	Publisher string                     `json:"publisher"`
	Date      string                     `json:"date"`
	Key       string                     `json:"key"`
	Columns   []string                   `json:"columns"`
	Records   []headlines.HeadlineRecord `json:"records"`
	Total     int                        `json:"total"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	var storageErr *headlines.StorageError
	switch {
	case errors.Is(err, publisher.ErrUnknownPublisher):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, errorResponse("storage_error", err.Error()))
	case isFetchFailure(err):
		c.JSON(http.StatusBadGateway, errorResponse("upstream_error", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

func isFetchFailure(err error) bool {
	_, ok := fetch.AsFailure(err)
	return ok
}

// HandleHealth handles GET /health.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleListPublishers handles GET /api/v1/publishers.
func (s *Server) HandleListPublishers(c *gin.Context) {
	ids := s.registry.IDs()
	publishers := make([]PublisherResponse, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.registry.Get(id)
		if err != nil {
			s.handleError(c, err)
			return
		}
		publishers = append(publishers, PublisherResponse{
			ID:      id,
			BaseURL: cfg.BaseURL,
			FeedURL: cfg.FeedURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"publishers": publishers,
		"total":      len(publishers),
	})
}

// HandleCreateRun handles POST /api/v1/runs.
func (s *Server) HandleCreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	// Resolve date
	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := output.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", "Invalid date format, expected yyyy-mm-dd"))
			return
		}
		date = parsed
	}

	stage := strings.ToLower(strings.TrimSpace(req.Stage))
	if stage == "" {
		stage = StageAll
	}

	resp := RunResponse{
		Publisher: req.Publisher,
		Date:      date.Format(output.DateLayout),
		Stage:     stage,
		RawKey:    output.RawKey(req.Publisher, date),
	}

	ctx := c.Request.Context()
	var err error
	switch stage {
	case StageDownload:
		err = s.job.Download(ctx, req.Publisher, date)
	case StageParse:
		resp.Summary, err = s.job.Parse(ctx, req.Publisher, date)
	case StageAll:
		resp.Summary, err = s.job.Run(ctx, req.Publisher, date)
	default:
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "Invalid stage, expected download, parse or all"))
		return
	}
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleObjectEvent handles POST /api/v1/events/object. A stored raw
// homepage triggers its parse stage; other objects are ignored.
func (s *Server) HandleObjectEvent(c *gin.Context) {
	var req ObjectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	if !strings.HasSuffix(req.Key, ".html") {
		c.JSON(http.StatusAccepted, gin.H{"status": "ignored", "key": req.Key})
		return
	}

	publisherID, date, err := output.ParseRawKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	summary, err := s.job.Parse(c.Request.Context(), publisherID, date)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, RunResponse{
		Publisher: publisherID,
		Date:      date.Format(output.DateLayout),
		Stage:     StageParse,
		RawKey:    req.Key,
		Summary:   summary,
	})
}

// HandleListPartitions handles GET /api/v1/partitions.
func (s *Server) HandleListPartitions(c *gin.Context) {
	partitions, err := s.catalog.List(c.Request.Context(), c.Query("publisher"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListPartitionsResponse{
		Partitions: partitions,
		Total:      len(partitions),
	})
}

// HandleGetPartition handles GET /api/v1/partitions/{publisher}/{date}.
func (s *Server) HandleGetPartition(c *gin.Context) {
	publisherID := c.Param("publisher")
	date, err := output.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "Invalid date format, expected yyyy-mm-dd"))
		return
	}

	key := output.Key(publisherID, date)
	data, err := s.store.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Partition not found"))
		return
	}
	if err != nil {
		s.handleError(c, &headlines.StorageError{Op: "get", Key: key, Err: err})
		return
	}

	table, err := headlines.ReadCSV(bytes.NewReader(data))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, PartitionResponse{
		Publisher: publisherID,
		Date:      date.Format(output.DateLayout),
		Key:       key,
		Columns:   table.Columns(),
		Records:   table.Records,
		Total:     table.Len(),
	})
}
