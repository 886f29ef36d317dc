package auth

import "github.com/gin-gonic/gin"

func SetupAuthRoutes(rg *gin.RouterGroup, controller *Controller) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", controller.Register) // POST /api/v1/auth/register
		authGroup.POST("/login", controller.Login)       // POST /api/v1/auth/login
	}
}
