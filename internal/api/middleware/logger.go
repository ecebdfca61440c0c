package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// quietPaths health and scrape paths that only log at debug unless they fail
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logger one structured line per request. Query strings are never logged:
// the admin list and export carry applicant search terms.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes_in", int(c.Request.ContentLength)),
			zap.String("request_id", GetRequestID(c)),
		}
		if user := c.GetString("username"); user != "" {
			fields = append(fields, zap.String("admin", user))
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("registration_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		case quietPaths[route]:
			level = zapcore.DebugLevel
		}
		if ce := logger.Check(level, "http request"); ce != nil {
			ce.Write(fields...)
		}
	}
}
