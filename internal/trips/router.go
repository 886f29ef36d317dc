package trips

import (
	"bustix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTripRoutes(rg *gin.RouterGroup, controller *Controller) {

	// PUBLIC BROWSING

	tripsGroup := rg.Group("/trips")
	{
		tripsGroup.GET("", controller.ListTrips)           // GET /api/v1/trips
		tripsGroup.GET("/search", controller.SearchTrips)  // GET /api/v1/trips/search?origin=&destination=&date=
		tripsGroup.GET("/:tripId", controller.GetTrip)     // GET /api/v1/trips/:tripId
	}

	// ADMIN TRIP MANAGEMENT

	adminTrips := rg.Group("/admin/trips")
	adminTrips.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminTrips.POST("", controller.CreateTrip) // POST /api/v1/admin/trips
	}
}
