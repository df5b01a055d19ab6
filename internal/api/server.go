// Package api exposes on-demand strategy evaluation over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/strategy"
)

// Evaluator is the part of the strategy engine the API serves.
type Evaluator interface {
	Evaluate(ctx context.Context, symbol string) strategy.Decision
	EvaluateFamily(ctx context.Context, symbol string, family model.Family) strategy.Decision
	EvaluateAll(ctx context.Context, symbol string) []strategy.Decision
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Listen         string
	ProductionMode bool
	AllowOrigins   []string
	Timeout        time.Duration // per-request evaluation deadline
}

// Server is the HTTP API.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	engine     Evaluator
	recorder   recorder.Recorder
	config     ServerConfig
	log        zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(config ServerConfig, engine Evaluator, rec recorder.Recorder, logger zerolog.Logger) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	s := &Server{
		router:   gin.New(),
		engine:   engine,
		recorder: rec,
		config:   config,
		log:      logger.With().Str("component", "api").Logger(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	if len(config.AllowOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = config.AllowOrigins
		corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
		s.router.Use(cors.New(corsConfig))
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.GET("/evaluate/:symbol", s.handleEvaluate)
	v1.GET("/evaluate/:symbol/:family", s.handleEvaluateFamily)
	v1.GET("/scan/:symbol", s.handleScan)
	v1.GET("/decisions", s.handleDecisions)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server. It blocks until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info().Str("addr", s.config.Listen).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

var familyAliases = map[string]model.Family{
	"momentum":   model.MomentumBreakout,
	"reversion":  model.MeanReversion,
	"volatility": model.VolatilityExpansion,
}

// ParseFamily accepts a family name or its short alias, in any case.
func ParseFamily(name string) (model.Family, bool) {
	if f, ok := familyAliases[strings.ToLower(name)]; ok {
		return f, true
	}
	upper := model.Family(strings.ToUpper(name))
	for _, f := range model.Families {
		if f == upper {
			return f, true
		}
	}
	return "", false
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Timeout)
	defer cancel()

	d := s.engine.Evaluate(ctx, strings.ToUpper(c.Param("symbol")))
	successResponse(c, s.record(ctx, d))
}

func (s *Server) handleEvaluateFamily(c *gin.Context) {
	family, ok := ParseFamily(c.Param("family"))
	if !ok {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown strategy family %q", c.Param("family")))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Timeout)
	defer cancel()

	d := s.engine.EvaluateFamily(ctx, strings.ToUpper(c.Param("symbol")), family)
	successResponse(c, s.record(ctx, d))
}

func (s *Server) handleScan(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Timeout)
	defer cancel()

	decisions := s.engine.EvaluateAll(ctx, strings.ToUpper(c.Param("symbol")))
	out := make([]*recorder.DecisionRecord, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, s.record(ctx, d))
	}
	successResponse(c, out)
}

func (s *Server) handleDecisions(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			errorResponse(c, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	rows, err := s.recorder.RecentDecisions(c.Request.Context(), strings.ToUpper(c.Query("symbol")), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("query decisions")
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch decisions")
		return
	}
	if rows == nil {
		rows = []recorder.DecisionRecord{}
	}
	successResponse(c, rows)
}

func (s *Server) record(ctx context.Context, d strategy.Decision) *recorder.DecisionRecord {
	rec := recorder.NewDecisionRecord(d, recorder.SourceAPI)
	if err := s.recorder.RecordDecision(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("symbol", d.Symbol).Msg("record decision")
	}
	return rec
}
