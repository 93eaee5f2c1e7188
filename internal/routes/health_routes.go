package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/controllers"
)

func HealthRoutes(r *gin.Engine) {
	r.GET("/health", controllers.Health)
}
