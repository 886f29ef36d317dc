package reviews

import (
	"bustix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReviewRoutes(rg *gin.RouterGroup, controller *Controller) {

	// TICKET REVIEWS (authenticated)

	ticketsGroup := rg.Group("/tickets")
	ticketsGroup.Use(middleware.JWTAuth())
	{
		ticketsGroup.POST("/:id/review", controller.SubmitReview) // POST /api/v1/tickets/:id/review
	}

	// TRIP REVIEW FEED (public)

	rg.GET("/trips/:tripId/reviews", controller.ListTripReviews) // GET /api/v1/trips/:tripId/reviews
}
