package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/controllers"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

func VehicleRoutes(r *gin.Engine) {
	vehicle := r.Group("/vehicles")
	vehicle.Use(middleware.RequireAuthWithRole(models.RoleCarOwner))
	{
		vehicle.POST("", controllers.CreateVehicle)
		vehicle.GET("", controllers.GetMyVehicles)
		vehicle.GET("/:id", controllers.GetVehicle)
		vehicle.PUT("/:id", controllers.UpdateVehicle)
		vehicle.DELETE("/:id", controllers.DeleteVehicle)
		vehicle.POST("/:id/image", controllers.UploadVehicleImage)
	}
}
