package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/monitoring"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

// Readiness reports every registered probe. Anything short of all-up answers 503 with the
// report attached so operators see which component failed.
func Readiness(manager *monitoring.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))
		if report.Healthy() {
			response.Success(c, http.StatusOK, report)
			return
		}
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Success: false,
			Data:    report,
			Error: &response.ErrorInfo{
				Code:    "UNAVAILABLE",
				Message: "component " + string(report.Status),
			},
		})
	}
}
