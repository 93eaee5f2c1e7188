package routes

import (
	"github.com/gin-gonic/gin"

	"autohub/internal/config"
	"autohub/internal/controllers"
	"autohub/internal/middleware"
)

func AuthRoutes(r *gin.Engine) {
	limit := config.Env.LoginRateLimit

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", middleware.RateLimit(config.Cache, "login", limit), controllers.Login)
		auth.GET("/google", controllers.GoogleLogin)
		auth.GET("/google/callback", controllers.GoogleCallback)

		auth.POST("/forgot-password", middleware.RateLimit(config.Cache, "forgot", limit), controllers.ForgotPassword)
		auth.POST("/verify-otp", middleware.RateLimit(config.Cache, "otp", limit), controllers.VerifyOTP)
		auth.POST("/reset-password", middleware.RateLimit(config.Cache, "reset", limit), controllers.ResetPassword)
	}

	session := auth.Group("")
	session.Use(middleware.RequireAuth())
	{
		session.GET("/me", controllers.Me)
		session.PATCH("/me", controllers.UpdateAccount)
		session.GET("/setup-status", controllers.GetSetupStatus)
		session.POST("/refresh-token", controllers.RefreshToken)
		session.POST("/complete-registration", controllers.CompleteRegistration)
		session.POST("/change-password", controllers.ChangePassword)
	}
}
