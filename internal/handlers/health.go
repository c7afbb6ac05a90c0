package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health pings whichever infrastructure this deployment actually has.
// Backends that are not configured simply do not appear in the report.
func (h HandlerSet) Health(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	report := gin.H{"status": "ok", "time": time.Now().UTC()}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			report["postgres"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			report["postgres"] = "up"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx).Err(); err != nil {
			report["redis"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			report["redis"] = "up"
		}
	}

	if status != http.StatusOK {
		report["status"] = "degraded"
	}
	c.JSON(status, report)
}
