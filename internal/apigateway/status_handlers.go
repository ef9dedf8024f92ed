package apigateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const statusPage = "<h1>E-Learning Backend API is Running 🚀</h1><p>Status: Online</p>"

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusHandler serves the HTML banner on the root path.
func StatusHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(statusPage))
}

// HealthHandler reports liveness stamped with the time from now.
func HealthHandler(now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok", Timestamp: now().UTC()})
	}
}
