// Command batsim-api exposes the charging-demand pipeline over HTTP:
// submit a scenario+population pair and get back the per-scenario
// summary as JSON.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/arup-group/batsim/internal/driver"
	"github.com/arup-group/batsim/internal/obslog"
	"github.com/arup-group/batsim/internal/obsmetrics"
	"github.com/arup-group/batsim/internal/population"
	"github.com/arup-group/batsim/internal/scenarioio"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sink, err := obslog.New("info")
	if err != nil {
		panic(err)
	}
	metrics := obsmetrics.New()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(errorHandler())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/v1/runs", func(c *gin.Context) {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("BAD_REQUEST", err.Error()))
			return
		}

		scn, err := scenarioio.Load(req.ScenarioPath)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("INVALID_SCENARIO", err.Error()))
			return
		}
		agents, err := population.Load(req.PopulationPath)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("INVALID_POPULATION", err.Error()))
			return
		}

		d := driver.New(scn, req.Concurrency, sink, metrics)
		result, err := d.Run(c.Request.Context(), agents)
		if err != nil {
			c.JSON(http.StatusGatewayTimeout, errorBody("RUN_CANCELLED", err.Error()))
			return
		}
		c.JSON(http.StatusOK, gin.H{"run_id": result.RunID, "summary": result.Summary})
	})

	addr := fmt.Sprintf(":%s", port)
	sink.Infof("starting batsim-api on %s", addr)

	handler := cors.Default().Handler(router)
	if err := http.ListenAndServe(addr, handler); err != nil {
		sink.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

type runRequest struct {
	ScenarioPath   string `json:"scenario_path" binding:"required"`
	PopulationPath string `json:"population_path" binding:"required"`
	Concurrency    int    `json:"concurrency"`
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// errorHandler mirrors the teacher's CustomRecovery-based middleware:
// panics are converted into a structured JSON error response instead
// of crashing the process.
func errorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "an unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", msg))
		c.Abort()
	})
}
