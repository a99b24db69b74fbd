package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/photoframe/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(handler *CompositeHandler, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	api := router.Group("/api")
	{
		composites := api.Group("/composites")
		{
			composites.POST("", handler.CreateComposite)
			composites.GET("/:id", handler.GetComposite)
			composites.GET("/:id/image", handler.GetImage)
			composites.DELETE("/:id", handler.DeleteComposite)
		}

		api.POST("/thumbnails", handler.SubmitThumbnail)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "photoframe-composer",
		})
	})
	return router
}
