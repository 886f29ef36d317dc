package payments

import (
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes registers the gateway-facing webhook. Authenticated by
// signature, not JWT.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/casso-webhook", controller.HandleWebhook) // POST /api/v1/casso-webhook
}
