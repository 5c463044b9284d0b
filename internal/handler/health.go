package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xby-111/bill/internal/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health pings the store. It always answers 200; "ok" tells whether the
// store responded.
func Health(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		if err := database.Ping(c.Request.Context(), db); err != nil {
			log.ErrorContext(c.Request.Context(), "health check failed", "error", err)
			dbStatus = "error"
		}
		status := "healthy"
		if dbStatus != "ok" {
			status = "unhealthy"
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":       dbStatus == "ok",
			"status":   status,
			"time":     time.Now().UTC().Format(time.RFC3339),
			"database": dbStatus,
		})
	}
}

// Root 欢迎信息
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "欢迎使用个人账单管理系统"})
}
