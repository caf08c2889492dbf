package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceMessage = "Feed India API is running"
	serviceMode    = "payment-simulation"
)

// Handler 健康检查
func Handler(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   serviceMessage,
			"timestamp": now().UTC().Format(time.RFC3339),
			"mode":      serviceMode,
		})
	}
}

// NotFound 未注册的路由
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"message": "Route " + c.Request.URL.Path + " not found",
	})
}
