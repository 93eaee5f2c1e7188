package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/controllers"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

// CatalogRoutes mounts a service center's services and packages.
// Reads are open to the center while it onboards; writes need a finished setup.
func CatalogRoutes(r *gin.Engine) {
	center := r.Group("")
	center.Use(middleware.RequireAuthWithRole(models.RoleServiceCenter))
	{
		center.GET("/services", controllers.GetMyServices)
		center.GET("/services/:id", controllers.GetService)
		center.GET("/packages", controllers.GetMyPackages)
		center.GET("/packages/:id", controllers.GetPackage)
	}

	manage := center.Group("")
	manage.Use(middleware.RequireSetupComplete())
	{
		manage.POST("/services", controllers.CreateService)
		manage.PUT("/services/:id", controllers.UpdateService)
		manage.DELETE("/services/:id", controllers.DeleteService)

		manage.POST("/packages", controllers.CreatePackage)
		manage.PUT("/packages/:id", controllers.UpdatePackage)
		manage.DELETE("/packages/:id", controllers.DeletePackage)
	}

	public := r.Group("/catalog/service-centers")
	{
		public.GET("/:id/services", controllers.ListCenterServices)
		public.GET("/:id/packages", controllers.ListCenterPackages)
	}
}
