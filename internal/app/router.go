package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler   *handler.RideHandler
	FareHandler   *handler.FareHandler
	DriverHandler *handler.DriverHandler
	WSHandler     *handler.WSHandler
	Authenticator *middleware.Authenticator
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")

	// The hub authenticates the socket itself.
	if deps.WSHandler != nil {
		v1.GET("/ws", deps.WSHandler.Serve)
	}

	api := v1.Group("")
	api.Use(middleware.AuthMiddleware(deps.Authenticator))
	api.Use(middleware.NewRelicCaller())
	api.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		// Ride routes.
		rides := api.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/fare", deps.FareHandler.GetFare)
			rides.GET("/fare/carpool", deps.FareHandler.GetCarpoolFare)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)

			driverOnly := rides.Group("", middleware.RequireRole(middleware.RoleDriver))
			driverOnly.POST("/:id/confirm", deps.RideHandler.ConfirmRide)
			driverOnly.POST("/:id/start", deps.RideHandler.StartRide)
			driverOnly.POST("/:id/end", deps.RideHandler.EndRide)
		}

		// Driver routes.
		drivers := api.Group("/drivers", middleware.RequireRole(middleware.RoleDriver))
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
		}
	}

	return router
}
