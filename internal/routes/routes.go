package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autohub/internal/config"
	"autohub/internal/logger"
	"autohub/internal/middleware"
	"autohub/internal/validation"
)

// SetupRouter builds the HTTP engine with every route group mounted.
func SetupRouter() *gin.Engine {
	if err := validation.RegisterBindings(); err != nil {
		logrus.WithError(err).Fatal("register validators")
	}

	r := gin.New()
	r.Use(
		ginlog.SetLogger(
			ginlog.WithWriter(logger.Writer()),
			ginlog.WithSkipPath([]string{"/health"}),
			ginlog.WithUTC(true),
		),
		gin.Recovery(),
		middleware.CORS(config.Env.CORSOrigins),
	)

	HealthRoutes(r)
	AuthRoutes(r)
	ProfileRoutes(r)
	VehicleRoutes(r)
	CatalogRoutes(r)
	SubscriptionRoutes(r)
	AdminRoutes(r)

	return r
}
