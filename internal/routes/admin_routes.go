package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/controllers"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/accounts", controllers.ListAccounts)
		admin.GET("/subscriptions", controllers.ListSubscriptions)
	}
}
