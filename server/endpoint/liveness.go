package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// startTime records when the process started for uptime reporting.
var startTime = time.Now()

// Liveness returns a handler for liveness probes. It only confirms the
// process can serve HTTP; it never consults components.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"service":   serviceName,
			"uptime_s":  int64(time.Since(startTime).Seconds()),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
