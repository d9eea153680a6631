package api

import "github.com/gin-gonic/gin"

// SetupRouter 配置和返回一个 Gin 引擎实例。authMiddleware 保护个人资料相关的路由。
func SetupRouter(h *Handler, authMiddleware gin.HandlerFunc) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", h.RegisterEmail)
			auth.POST("/login", h.LoginEmail)
			auth.POST("/logout", h.Logout)

			profile := auth.Group("", authMiddleware)
			profile.GET("/profile", h.Profile)
			profile.POST("/update-profile-pic", h.UpdateProfilePic)
		}
	}

	// 兼容旧版前端的路径
	legacy := r.Group("/api/auth", authMiddleware)
	{
		legacy.GET("/profile", h.Profile)
		legacy.POST("/update-profile-pic", h.UpdateProfilePic)
	}

	return r
}
