package payments

import (
	"net/http"

	"bustix/internal/shared/utils/response"
	"bustix/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// SignatureHeader carries the HMAC-SHA256 hex digest of the raw body
const SignatureHeader = "X-Casso-Signature"

type Controller struct {
	service Service
	logger  *logger.Logger
}

func NewController(service Service, log *logger.Logger) *Controller {
	return &Controller{service: service, logger: log}
}

// HandleWebhook ingests a casso payment notification. Business rejections
// still answer 200 so the gateway stops retrying; only authentication and
// parse failures are HTTP errors.
func (c *Controller) HandleWebhook(ctx *gin.Context) {
	body, err := ctx.GetRawData()
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to read request body", nil, err.Error())
		return
	}

	signature := ctx.GetHeader(SignatureHeader)
	if !c.service.VerifySignature(body, signature) {
		c.logger.LogWebhookRejected(ctx.Request.Context(), "invalid signature", ctx.ClientIP())
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid webhook signature", nil, "signature verification failed")
		return
	}

	var payload WebhookPayload
	if err := binding.JSON.BindBody(body, &payload); err != nil {
		c.logger.LogWebhookRejected(ctx.Request.Context(), "malformed payload", ctx.ClientIP())
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid webhook payload", nil, err.Error())
		return
	}

	results := c.service.HandleWebhook(ctx.Request.Context(), payload)

	response.RespondJSON(ctx, "success", http.StatusOK, "Webhook processed", gin.H{"results": results}, nil)
}
