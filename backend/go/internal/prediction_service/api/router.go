package api

import "github.com/gin-gonic/gin"

// SetupRouter wires the prediction routes. authMiddleware must set the verified user id;
// limiter, when non-nil, runs after authentication so it can key on the user.
func SetupRouter(a *API, authMiddleware gin.HandlerFunc, limiter gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", a.HealthHandler)

	protected := []gin.HandlerFunc{authMiddleware}
	if limiter != nil {
		protected = append(protected, limiter)
	}

	predictions := r.Group("/api/v1/predictions", protected...)
	{
		predictions.POST("", a.CreatePredictionHandler)
		predictions.GET("", a.ListPredictionsHandler)
	}

	// Paths kept for existing web clients.
	legacy := r.Group("/api/predictions", protected...)
	{
		legacy.POST("/save", a.CreatePredictionHandler)
		legacy.GET("/history", a.ListPredictionsHandler)
	}

	return r
}
