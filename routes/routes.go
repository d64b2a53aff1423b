package routes

import (
	"nutrilens/controllers"
	"nutrilens/middlewares"

	"github.com/gin-gonic/gin"
)

// Deps is everything the router needs. Devices may be nil when push is not
// configured; MediaRoot is empty unless images are stored on local disk.
type Deps struct {
	JWTSecret string
	MediaURL  string
	MediaRoot string

	Auth       *controllers.AuthController
	User       *controllers.UserController
	Intake     *controllers.IntakeController
	Evaluation *controllers.EvaluationController
	Analytics  *controllers.AnalyticsController
	Realtime   *controllers.RealtimeController
	Devices    *controllers.DeviceController

	EvaluateLimiter *middlewares.UserRateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	if d.MediaRoot != "" {
		r.Static(d.MediaURL, d.MediaRoot)
	}

	accounts := r.Group("/api/accounts")
	{
		accounts.POST("/register/", d.Auth.Register)
		accounts.POST("/login/", d.Auth.Login)
		accounts.POST("/password/forgot/", d.Auth.ForgotPassword)
		accounts.POST("/password/reset/", d.Auth.ResetPassword)
	}

	auth := middlewares.AuthMiddleware(d.JWTSecret, false)
	protected := accounts.Group("")
	protected.Use(auth)
	{
		protected.GET("/my-info/", d.User.GetProfile)
		protected.PUT("/my-info/", d.User.UpdateProfile)

		protected.POST("/chat/", d.Intake.Chat)
		protected.POST("/image-analyze/", d.Intake.ImageAnalyze)
		protected.POST("/hybrid-analyze/", d.Intake.HybridAnalyze)
		protected.GET("/intake/", d.Intake.List)

		evaluate := []gin.HandlerFunc{d.Evaluation.Evaluate}
		if d.EvaluateLimiter != nil {
			evaluate = append([]gin.HandlerFunc{d.EvaluateLimiter.Middleware()}, evaluate...)
		}
		protected.POST("/evaluate/", evaluate...)
		protected.GET("/history/", d.Evaluation.History)
		protected.GET("/history/:date/", d.Evaluation.HistoryDetail)

		if d.Analytics != nil {
			protected.GET("/analytics/summary/", d.Analytics.GetAnalyticsSummary)
			protected.GET("/analytics/weekly/", d.Analytics.GetWeeklyOverview)
		}

		if d.Devices != nil {
			protected.POST("/devices/", d.Devices.Register)
			protected.POST("/devices/notifications/", d.Devices.ToggleNotifications)
		}
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware(d.JWTSecret, true))
	{
		ws.GET("/events", d.Realtime.EventsWS)
	}

	return r
}
