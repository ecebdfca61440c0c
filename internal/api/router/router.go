package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hogis-registration/config"
	"hogis-registration/internal/api/handler"
	"hogis-registration/internal/api/middleware"
	"hogis-registration/pkg/jwt"
	"hogis-registration/pkg/notify"
	"hogis-registration/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil: rate limiting and the token
// blacklist are then skipped.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	var (
		limiter   middleware.RateLimiter
		blacklist middleware.Blacklist
	)
	if rdb != nil {
		limiter, blacklist = rdb, rdb
	}
	return setup(cfg, h, jwtMgr, limiter, blacklist, logger)
}

func setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, blacklist middleware.Blacklist, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── health / metrics ──
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// public registration form
		v1.POST("/registrations",
			middleware.RateLimit(limiter, cfg.Submission.RateLimit, cfg.Submission.RateWindow, logger),
			h.Registration.Submit,
		)

		// email relay
		relay := v1.Group("/notify")
		relay.Use(middleware.RateLimit(limiter, cfg.Mail.RelayRateLimit, cfg.Mail.RelayRateWindow, logger))
		relay.Use(middleware.RelaySecret(notify.RelaySecretHeader, cfg.Mail.RelaySecret))
		{
			relay.POST("/confirmation", h.Notify.Confirmation)
			relay.POST("/status", h.Notify.Status)
		}

		// admin login (no auth)
		v1.POST("/admin/login",
			middleware.RateLimit(limiter, cfg.Submission.RateLimit, cfg.Submission.RateWindow, logger),
			h.Auth.Login,
		)

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtMgr, blacklist, handler.CookieName(&cfg.Auth), logger))
		admin.Use(middleware.RoleAuth(jwt.RoleAdmin))
		{
			admin.GET("/verify", h.Auth.Verify)
			admin.POST("/logout", h.Auth.Logout)

			registrations := admin.Group("/registrations")
			{
				registrations.GET("", h.Admin.ListRegistrations)
				registrations.GET("/:id", h.Admin.GetRegistration)
				registrations.POST("/:id/accept", h.Admin.Accept)
				registrations.POST("/:id/reject", h.Admin.Reject)
			}

			admin.GET("/export", h.Export.Export)
		}
	}

	return r
}
