package routes

import (
	"github.com/gin-gonic/gin"

	"vantrack/internal/controllers"
	"vantrack/internal/middleware"
)

func FamilyRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.POST("/children", controllers.CreateChild)
	}

	parent := r.Group("/parent")
	parent.Use(middleware.RequireAuthWithRole("parent"))
	{
		parent.GET("/children", controllers.ListChildren)
	}
}
