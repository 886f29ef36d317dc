package seats

import (
	"errors"
	"net/http"

	"bustix/internal/shared/middleware"
	"bustix/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetAvailability returns the seat map for a trip
func (c *Controller) GetAvailability(ctx *gin.Context) {
	tripID, err := uuid.Parse(ctx.Param("tripId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip ID", nil, err.Error())
		return
	}

	snapshot, err := c.service.ListAvailability(ctx.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, ErrSeatNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", snapshot, nil)
}

// AcquireHold places a hold on the requested seats
func (c *Controller) AcquireHold(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user context")
		return
	}
	sessionID, err := uuid.Parse(userID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid user context", nil, err.Error())
		return
	}

	var req HoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	hold, err := c.service.AcquireHold(ctx.Request.Context(), sessionID, req)
	if err != nil {
		var conflict *HoldConflictError
		switch {
		case errors.As(err, &conflict):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Some seats are not available", gin.H{"unavailable_seats": conflict.Labels}, err.Error())
		case errors.Is(err, ErrTooManySeats):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Too many seats requested", nil, err.Error())
		default:
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to hold seats", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats held successfully", hold, nil)
}

// ReleaseHold releases a hold the caller owns. Idempotent.
func (c *Controller) ReleaseHold(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user context")
		return
	}

	holdID, err := uuid.Parse(ctx.Param("holdId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid hold ID", nil, err.Error())
		return
	}

	hold, _, err := c.service.GetHold(ctx.Request.Context(), holdID)
	if err != nil {
		if errors.Is(err, ErrHoldNotFound) {
			// Unknown hold releases as a no-op
			response.RespondJSON(ctx, "success", http.StatusOK, "Hold released", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to release hold", nil, err.Error())
		return
	}
	if hold.SessionID.String() != userID {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Hold belongs to another user", nil, "not hold owner")
		return
	}

	if err := c.service.ReleaseHold(ctx.Request.Context(), holdID); err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to release hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released", nil, nil)
}
