package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/controllers"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

func ProfileRoutes(r *gin.Engine) {
	profile := r.Group("/profile")
	profile.Use(middleware.RequireAuthWithRole(models.RoleCarOwner, models.RoleServiceCenter, models.RolePartSeller))
	{
		profile.GET("", controllers.GetProfile)
		profile.POST("", controllers.CreateProfile)
		profile.PATCH("", controllers.UpdateProfile)
		profile.POST("/logo", controllers.UploadAvatar)
	}
}
