package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/monitoring"
	"github.com/charlesng35/posadmin/pkg/response"
)

// Health reports readiness: every registered dependency probe must be up.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return healthReport(manager.EvaluateReadiness)
}

// Liveness reports whether the process can serve at all.
func Liveness(manager *monitoring.HealthManager) gin.HandlerFunc {
	return healthReport(manager.EvaluateLiveness)
}

func healthReport(evaluate func(context.Context) monitoring.HealthReport) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := evaluate(requestContext(c))
		if !report.Success {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    report,
				Error: &response.ErrorInfo{
					Code:    "DEPENDENCY_UNAVAILABLE",
					Message: "One or more dependencies are unavailable",
				},
			})
			return
		}
		response.Success(c, http.StatusOK, report)
	}
}
