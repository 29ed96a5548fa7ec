package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kalike-app/kalike/internal/observability"
	"github.com/kalike-app/kalike/internal/platform/logger"
)

const (
	headerRequestID = "X-Request-Id"
	headerTraceID   = "X-Trace-Id"
)

// AttachRequestID reuses or assigns a request ID and echoes it, with the
// trace ID when a span is active.
func AttachRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerRequestID, reqID)

		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			c.Set("trace_id", sc.TraceID().String())
			c.Writer.Header().Set(headerTraceID, sc.TraceID().String())
		}
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		}
		if traceID := c.GetString("trace_id"); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Metrics counts requests by route template. With nil metrics it only
// passes through.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.APIInflightInc()
		defer m.APIInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// CORS allows the configured frontend origins, or local dev servers when
// none are set. "*" allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders: []string{headerRequestID, headerTraceID},
		MaxAge:        12 * time.Hour,
	}
	switch {
	case len(origins) == 1 && origins[0] == "*":
		cfg.AllowAllOrigins = true
	case len(origins) == 0:
		cfg.AllowOrigins = defaultOrigins
		cfg.AllowCredentials = true
	default:
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
