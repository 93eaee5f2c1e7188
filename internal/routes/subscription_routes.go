package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/controllers"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

func SubscriptionRoutes(r *gin.Engine) {
	sub := r.Group("/subscription")
	sub.Use(middleware.RequireAuthWithRole(models.RoleServiceCenter, models.RolePartSeller))
	{
		sub.GET("", controllers.GetSubscription)
		sub.POST("", controllers.Subscribe)
		sub.POST("/cancel", controllers.CancelSubscription)
	}
}
