// Package api exposes the chat flow, the tool registry and the persona
// catalog over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"voice-agent-workers/internal/chat"
	"voice-agent-workers/internal/common/config"
	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/metrics"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/store"
	"voice-agent-workers/internal/tools"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Chat     *chat.Service
	Store    store.Store
	Registry *tools.Registry
	Personas *persona.Catalog
	// Checks are consulted by /ready, keyed by dependency name.
	Checks map[string]Checker
}

func NewRouter(cfg config.ServerConfig, deps Deps, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), requestMetrics())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	health := &healthHandler{checks: deps.Checks}
	r.GET("/health", health.Live)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatH := &chatHandler{svc: deps.Chat, store: deps.Store}
	toolH := &toolHandler{registry: deps.Registry}
	personaH := &personaHandler{catalog: deps.Personas}

	v := r.Group("/api")
	{
		v.POST("/chat", chatH.Chat)
		v.GET("/conversations/:id", chatH.Conversation)

		v.GET("/tools", toolH.List)
		v.GET("/tools/:name", toolH.Info)
		v.POST("/tools/:name/run", toolH.Run)

		v.GET("/personas", personaH.List)
		v.GET("/personas/:key", personaH.Get)
	}

	return r
}

// NewServer wraps the router with the configured timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/health" || c.FullPath() == "/metrics" {
			return
		}
		log.Info("http request", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}

// writeError answers with the status mapped from the error code.
func writeError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	c.JSON(apperrors.HTTPStatus(stdErr.Code), gin.H{"error": stdErr})
}
