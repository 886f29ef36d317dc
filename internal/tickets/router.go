package tickets

import (
	"bustix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTicketRoutes(rg *gin.RouterGroup, controller *Controller) {

	// CHECKOUT (authenticated)

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.JWTAuth())
	{
		checkout.POST("", controller.StartCheckout) // POST /api/v1/checkout
	}

	// PAYMENT STATUS POLLING (authenticated)

	payment := rg.Group("/payment")
	payment.Use(middleware.JWTAuth())
	{
		payment.GET("/status/:code", controller.GetPaymentStatus) // GET /api/v1/payment/status/:code
	}

	// TICKET MANAGEMENT (authenticated)

	ticketsGroup := rg.Group("/tickets")
	ticketsGroup.Use(middleware.JWTAuth())
	{
		ticketsGroup.GET("", controller.ListMyTickets)          // GET /api/v1/tickets
		ticketsGroup.GET("/:id", controller.GetTicket)          // GET /api/v1/tickets/:id
		ticketsGroup.POST("/:id/cancel", controller.CancelTicket) // POST /api/v1/tickets/:id/cancel
		ticketsGroup.POST("/:id/rebook", controller.RebookTicket) // POST /api/v1/tickets/:id/rebook
	}
}
