package auth

import (
	"errors"
	"net/http"

	"bustix/internal/shared/utils/response"
	"bustix/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	authResponse, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Registration failed", nil, err.Error())
		return
	}

	logger.GetDefault().LogAuthSuccess(ctx.Request.Context(), authResponse.User.ID, "register")
	response.RespondJSON(ctx, "success", http.StatusCreated, "User registered successfully", authResponse, nil)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	authResponse, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.GetDefault().LogAuthFailure(ctx.Request.Context(), "invalid credentials", ctx.ClientIP())
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Login failed", nil, err.Error())
		return
	}

	logger.GetDefault().LogAuthSuccess(ctx.Request.Context(), authResponse.User.ID, "login")
	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", authResponse, nil)
}
