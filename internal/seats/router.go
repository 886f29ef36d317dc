package seats

import (
	"bustix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller) {

	// PUBLIC SEAT MAP

	rg.GET("/trips/:tripId/seats", controller.GetAvailability) // GET /api/v1/trips/:tripId/seats

	// HOLD MANAGEMENT (authenticated)

	holds := rg.Group("/seats")
	holds.Use(middleware.JWTAuth())
	{
		holds.POST("/hold", controller.AcquireHold)              // POST /api/v1/seats/hold
		holds.DELETE("/hold/:holdId", controller.ReleaseHold)    // DELETE /api/v1/seats/hold/:holdId
	}
}
