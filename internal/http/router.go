package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/tidepredictor/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows every origin.
func SetupRouter(predictionUC *usecase.PredictionUseCase, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(predictionUC)

	v1 := router.Group("/v1")
	v1.GET("/tides/levels", handler.GetLevels)
	v1.GET("/currents", handler.GetCurrents)
	v1.GET("/currents/profile", handler.GetProfile)
	v1.GET("/constituents", handler.GetConstituents)

	router.GET("/health", handler.HealthCheck)

	return router
}
