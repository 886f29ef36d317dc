package tickets

import (
	"errors"
	"net/http"
	"strconv"

	"bustix/internal/seats"
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

// StartCheckout converts a hold into a booking attempt awaiting payment
func (c *Controller) StartCheckout(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user context")
		return
	}

	var req CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	checkout, err := c.service.StartCheckout(ctx.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, seats.ErrHoldNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Hold not found", nil, err.Error())
		case errors.Is(err, seats.ErrHoldExpired):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Hold has expired", nil, err.Error())
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to start checkout", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Checkout started", checkout, nil)
}

// ListMyTickets returns the caller's tickets
func (c *Controller) ListMyTickets(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user context")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	ticketList, err := c.service.ListMyTickets(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list tickets", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Tickets retrieved successfully", ticketList, nil)
}

// GetTicket returns one of the caller's tickets
func (c *Controller) GetTicket(ctx *gin.Context) {
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

	ticket, err := c.service.GetTicket(ctx.Request.Context(), userID, ticketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get ticket", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket retrieved successfully", ticket, nil)
}

// GetPaymentStatus reports where a checkout stands, for polling after payment
func (c *Controller) GetPaymentStatus(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user context")
		return
	}

	code := ctx.Param("code")
	status, err := c.service.GetPaymentStatus(ctx.Request.Context(), userID, code)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking attempt not found", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get payment status", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment status retrieved successfully", status, nil)
}

// CancelTicket cancels a confirmed ticket and frees its seat
func (c *Controller) CancelTicket(ctx *gin.Context) {
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

	ticket, err := c.service.CancelTicket(ctx.Request.Context(), userID, ticketID)
	if err != nil {
		c.respondCancelError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket cancelled successfully", ticket, nil)
}

// RebookTicket exchanges a confirmed ticket for seats on another trip
func (c *Controller) RebookTicket(ctx *gin.Context) {
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

	var req RebookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	result, err := c.service.RebookTicket(ctx.Request.Context(), userID, ticketID, req)
	if err != nil {
		var conflict *seats.HoldConflictError
		if errors.As(err, &conflict) {
			response.RespondJSON(ctx, "error", http.StatusConflict, "Replacement seats are not available", gin.H{"unavailable_seats": conflict.Labels}, err.Error())
			return
		}
		c.respondCancelError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket rebooked successfully", result, nil)
}

func (c *Controller) respondCancelError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTicketNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket not found", nil, err.Error())
	case errors.Is(err, ErrTicketNotConfirmed):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Ticket is not in a cancellable state", nil, err.Error())
	case errors.Is(err, ErrCancellationWindowClosed):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Too close to departure to cancel", nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to cancel ticket", nil, err.Error())
	}
}
