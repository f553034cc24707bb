package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the JSON API engine. hub may be nil, which disables the
// chart event stream.
func NewRouter(mode string, handler *RDPlotHandler, hub *SSEHub) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	started := time.Now()
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).Round(time.Second).String(),
		})
	})

	handler.RegisterRoutes(router)
	if hub != nil {
		router.GET("/api/v1/charts/:chart_id/events", hub.HandleSSE)
	}
	return router
}
