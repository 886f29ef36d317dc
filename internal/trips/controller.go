package trips

import (
	"errors"
	"net/http"
	"strconv"

	"bustix/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateTrip(ctx *gin.Context) {
	var req CreateTripRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	trip, err := c.service.CreateTrip(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create trip", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Trip created successfully", trip.ToResponse(), nil)
}

func (c *Controller) GetTrip(ctx *gin.Context) {
	id := ctx.Param("tripId")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Trip ID is required", nil, "missing trip ID")
		return
	}

	trip, err := c.service.GetTrip(ctx.Request.Context(), id)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrTripNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get trip", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip retrieved successfully", trip.ToResponse(), nil)
}

func (c *Controller) ListTrips(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	trips, err := c.service.ListTrips(ctx.Request.Context(), limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list trips", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trips retrieved successfully", trips, nil)
}

func (c *Controller) SearchTrips(ctx *gin.Context) {
	var query SearchQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid search parameters", nil, err.Error())
		return
	}

	trips, err := c.service.SearchTrips(ctx.Request.Context(), query)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to search trips", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trips retrieved successfully", trips, nil)
}
