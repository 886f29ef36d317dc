package reviews

import (
	"errors"
	"net/http"
	"strconv"

	"bustix/internal/shared/middleware"
	"bustix/internal/shared/utils/response"
	"bustix/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SubmitReview creates or replaces the caller's review for a ticket
func (c *Controller) SubmitReview(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user context")
		return
	}

	ticketID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, err.Error())
		return
	}

	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	review, err := c.service.SubmitReview(ctx.Request.Context(), userID, ticketID, req)
	if err != nil {
		switch {
		case errors.Is(err, tickets.ErrTicketNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, err.Error())
		case errors.Is(err, ErrTicketNotReviewable):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Ticket is not reviewable", nil, err.Error())
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to submit review", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Review submitted successfully", review, nil)
}

// ListTripReviews returns a trip's reviews with the aggregate rating
func (c *Controller) ListTripReviews(ctx *gin.Context) {
	tripID, err := uuid.Parse(ctx.Param("tripId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip ID", nil, err.Error())
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	reviews, err := c.service.ListTripReviews(ctx.Request.Context(), tripID, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list reviews", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reviews retrieved successfully", reviews, nil)
}
