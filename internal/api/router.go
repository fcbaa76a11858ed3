package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pool-attendance-backend/internal/auth"
	"pool-attendance-backend/internal/mw"
)

// NewRouter creates and configures the gin router. Report endpoints sit
// behind a short response cache; everything except login, health and the
// push subscription endpoints requires an admin token.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimit(rate.Limit(h.cfg.Server.RateLimitPerSec), int(h.cfg.Server.RateLimitPerSec))

	cacheTTL := time.Duration(h.cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/login", h.Login)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		admin := api.Group("")
		admin.Use(auth.Middleware(h.auth))
		{
			admin.PUT("/password", h.ChangePassword)

			admin.POST("/students", h.RegisterStudent)
			admin.GET("/students", h.ListStudents)
			admin.GET("/students/:id", h.GetStudent)
			admin.GET("/students/:id/pass", h.GetStudentPass)

			admin.POST("/scans", h.RecordScan)

			admin.GET("/reports/day", caching, h.GetDayReport)
			admin.GET("/reports/occupancy", caching, h.GetOccupancyReport)
			admin.GET("/reports/students/:id", caching, h.GetStudentReport)
			admin.GET("/reports/overview", caching, h.GetOverviewReport)
			admin.GET("/reports/rollups", caching, h.GetRollupReport)
			admin.GET("/reports/growth", caching, h.GetGrowthReport)
			admin.GET("/reports/diagnostics", h.GetDiagnostics)

			admin.GET("/export/students", h.ExportStudents)
			admin.GET("/export/attendance", h.ExportAttendance)
			admin.GET("/export/day", h.ExportDay)
			admin.POST("/import/attendance", h.ImportAttendance)
		}
	}

	return r
}
