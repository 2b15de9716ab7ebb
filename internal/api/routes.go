package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pairlens/pairlens-go/internal/database"
	"github.com/pairlens/pairlens-go/internal/services"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
}

// SetupRoutes registers the operational API: health, run triggering, run
// status, and the latest report. The dashboard that consumes these lives
// elsewhere; this side only serves the boundary.
func SetupRoutes(router *gin.Engine, db *database.PostgresDB, runner *services.SweepRunner) {
	router.GET("/health", healthCheck(db))

	v1 := router.Group("/api/v1")
	{
		sweeps := v1.Group("/sweeps")
		{
			sweeps.POST("", triggerSweep(runner))
			sweeps.GET("/latest", latestSweep(runner))
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/latest", latestReport(runner))
		}
	}
}

func healthCheck(db *database.PostgresDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
			},
		}

		if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}

// triggerSweep starts a run in the background. The run itself keeps its
// single logical thread; the handler only hands off.
func triggerSweep(runner *services.SweepRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if runner.Running() {
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrSweepInProgress.Error()})
			return
		}

		// The run outlives this request, so it gets its own context. Failures
		// are logged by the runner itself; the trigger response is already gone.
		go func() {
			_, _ = runner.Run(context.Background())
		}()

		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	}
}

func latestSweep(runner *services.SweepRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary := runner.LastSummary()
		if summary == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no completed sweep run"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"summary": summary,
			"running": runner.Running(),
		})
	}
}

func latestReport(runner *services.SweepRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := os.ReadFile(runner.LatestReportPath())
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report generated yet"})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", report)
	}
}
